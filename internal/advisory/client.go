// Package advisory turns recent health records into AI-generated advisory
// entries. The client never fails: transport problems and missing
// credentials degrade to a single fallback entry.
package advisory

import (
	"context"
	"time"

	"github.com/songkhoe/backend/pkg/model"
	"go.uber.org/zap"
)

const (
	// DefaultWindow is how many of the most recent records are analyzed
	DefaultWindow = 7
	// DefaultTimeout bounds a single completion call
	DefaultTimeout = 30 * time.Second
)

// CompletionRequest is one structured-output completion call
type CompletionRequest struct {
	Prompt string
	// Schema describes the expected JSON array of advisories
	Schema map[string]any
	// Model overrides the completer's default model when set
	Model string
}

// Completer performs a single completion call and returns the raw text body
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Backend is either Configured or Unconfigured. It is resolved once when the
// client is built.
type Backend interface {
	backend()
}

// Configured carries a usable completion backend
type Configured struct {
	Completer Completer
}

// Unconfigured records why no completion backend is available
type Unconfigured struct {
	Reason string
}

func (Configured) backend()   {}
func (Unconfigured) backend() {}

// Client requests advisories for a set of health records
type Client struct {
	backend Backend
	window  int
	timeout time.Duration
	model   string
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithWindow sets how many recent records are sent
func WithWindow(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.window = n
		}
	}
}

// WithTimeout bounds each completion call
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithModel sets the model id sent with each request
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// New creates an advisory client
func New(backend Backend, logger *zap.Logger, opts ...Option) *Client {
	if backend == nil {
		backend = Unconfigured{Reason: "no completion backend"}
	}

	c := &Client{
		backend: backend,
		window:  DefaultWindow,
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a completion backend is available
func (c *Client) Configured() bool {
	_, ok := c.backend.(Configured)
	return ok
}

// RequestAdvisories analyzes the most recent records. It issues at most one
// completion call and never returns an error.
func (c *Client) RequestAdvisories(ctx context.Context, records []model.HealthRecord) []model.AdvisoryEntry {
	if len(records) == 0 {
		return []model.AdvisoryEntry{}
	}

	var completer Completer
	switch b := c.backend.(type) {
	case Configured:
		completer = b.Completer
	case Unconfigured:
		c.logger.Warn("advisory backend not configured", zap.String("reason", b.Reason))
		return []model.AdvisoryEntry{NotConfiguredEntry()}
	}

	recent := records
	if len(recent) > c.window {
		recent = recent[len(recent)-c.window:]
	}

	prompt, err := BuildPrompt(recent)
	if err != nil {
		c.logger.Error("failed to build advisory prompt", zap.Error(err))
		return []model.AdvisoryEntry{UnavailableEntry()}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := completer.Complete(callCtx, CompletionRequest{
		Prompt: prompt,
		Schema: Schema(),
		Model:  c.model,
	})
	if err != nil {
		c.logger.Error("advisory request failed",
			zap.Error(err),
			zap.Int("record_count", len(recent)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return []model.AdvisoryEntry{UnavailableEntry()}
	}

	entries, err := Parse(text)
	if err != nil {
		c.logger.Warn("advisory response could not be parsed",
			zap.Error(err),
			zap.Int("response_length", len(text)),
		)
		return []model.AdvisoryEntry{}
	}

	c.logger.Info("advisories received",
		zap.Int("record_count", len(recent)),
		zap.Int("advisory_count", len(entries)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return entries
}

// UnavailableEntry is returned when the completion call fails
func UnavailableEntry() model.AdvisoryEntry {
	return model.AdvisoryEntry{
		Category: model.CategoryGeneral,
		Title:    "Lỗi kết nối AI",
		Content:  "Không thể phân tích dữ liệu ngay lúc này. Vui lòng kiểm tra lại sau.",
		Severity: model.SeverityLow,
	}
}

// NotConfiguredEntry is returned when no API key is configured
func NotConfiguredEntry() model.AdvisoryEntry {
	return model.AdvisoryEntry{
		Category: model.CategoryGeneral,
		Title:    "Chưa cấu hình AI",
		Content:  "Tính năng phân tích AI chưa được cấu hình. Vui lòng thiết lập khóa API để nhận lời khuyên.",
		Severity: model.SeverityLow,
	}
}
