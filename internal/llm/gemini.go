package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/songkhoe/backend/internal/advisory"
	"go.uber.org/zap"
)

const (
	// DefaultGeminiBaseURL is the Generative Language API root
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultGeminiModel is used when no model is configured
	DefaultGeminiModel = "gemini-3-flash-preview"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiClient calls the native generateContent endpoint
type GeminiClient struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewGeminiClient creates a Gemini REST client. Retries are disabled.
func NewGeminiClient(baseURL, apiKey, model string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("x-goog-api-key", apiKey)

	return &GeminiClient{
		httpClient: client,
		model:      model,
		logger:     logger,
	}, nil
}

// Complete sends one generateContent request and returns the first candidate's text
func (c *GeminiClient) Complete(ctx context.Context, req advisory.CompletionRequest) (string, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
	}
	if req.Schema != nil {
		body.GenerationConfig = geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   geminiSchema(req.Schema),
		}
	}

	start := time.Now()
	var result geminiResponse
	var apiErr geminiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1beta/models/{model}:generateContent")

	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Gemini API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("status", apiErr.Error.Status),
			zap.String("message", apiErr.Error.Message),
		)
		return "", fmt.Errorf("Gemini API error: %s (status: %d)", apiErr.Error.Message, resp.StatusCode())
	}

	c.logger.Info("Gemini token usage",
		zap.String("model", model),
		zap.Int("prompt_tokens", result.UsageMetadata.PromptTokenCount),
		zap.Int("completion_tokens", result.UsageMetadata.CandidatesTokenCount),
		zap.Int("total_tokens", result.UsageMetadata.TotalTokenCount),
		zap.Duration("request_time", time.Since(start)),
	)

	if len(result.Candidates) == 0 {
		return "", nil
	}
	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

// geminiSchema copies a JSON schema, upper-casing type names to the
// Gemini Type enum (ARRAY, OBJECT, STRING, ...).
func geminiSchema(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		switch val := v.(type) {
		case map[string]any:
			out[k] = geminiSchema(val)
		case string:
			if k == "type" {
				out[k] = strings.ToUpper(val)
			} else {
				out[k] = val
			}
		default:
			out[k] = val
		}
	}
	return out
}

var _ advisory.Completer = (*GeminiClient)(nil)
