// Package llm implements advisory completion backends.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/songkhoe/backend/internal/advisory"
	"go.uber.org/zap"
)

// DefaultOpenAIBaseURL is Gemini's OpenAI-compatible endpoint
const DefaultOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// OpenAIClient calls a chat completions API through the openai-go SDK.
// It makes exactly one attempt per request.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates a client for any OpenAI-compatible endpoint
func NewOpenAIClient(baseURL, apiKey, model string, logger *zap.Logger) (*OpenAIClient, error) {
	if apiKey == "" || model == "" {
		return nil, fmt.Errorf("apiKey and model are required")
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &OpenAIClient{
		client: &client,
		model:  model,
		logger: logger,
	}, nil
}

// NewAzureOpenAIClient creates a client for an Azure OpenAI deployment
func NewAzureOpenAIClient(endpoint, apiVersion, apiKey, deployment string, logger *zap.Logger) (*OpenAIClient, error) {
	if endpoint == "" || apiKey == "" || deployment == "" {
		return nil, fmt.Errorf("endpoint, apiKey, and deployment are required")
	}
	if apiVersion == "" {
		apiVersion = "2024-08-01-preview"
	}

	client := openai.NewClient(
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &OpenAIClient{
		client: &client,
		model:  deployment,
		logger: logger,
	}, nil
}

// Complete sends one chat completion request constrained to the advisory schema
func (c *OpenAIClient) Complete(ctx context.Context, req advisory.CompletionRequest) (string, error) {
	requestStart := time.Now()

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "health_advisories",
					Description: openai.String("Danh sách lời khuyên sức khỏe"),
					Schema:      wrapSchema(req.Schema),
				},
			},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from completion API")
	}

	c.logger.Info("completion token usage",
		zap.String("model", model),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("request_time", time.Since(requestStart)),
	)

	return resp.Choices[0].Message.Content, nil
}

// wrapSchema puts an array schema under an object root, since structured
// outputs require the top level to be an object.
func wrapSchema(schema map[string]any) map[string]any {
	if schema["type"] == "object" {
		return schema
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"advisories": schema,
		},
		"required": []string{"advisories"},
	}
}

var _ advisory.Completer = (*OpenAIClient)(nil)
