// Package langchain adapts langchaingo chat models to the generation use case.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
	"github.com/kailas-cloud/inquirydesk/internal/usecase/generation"
)

// ProviderOllama selects the native Ollama client. Every other provider speaks the OpenAI chat API.
const ProviderOllama = "ollama"

var _ generation.LanguageModel = (*Model)(nil)

// Config holds chat model settings.
type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Logger      *zap.Logger
}

// Model is a generation.LanguageModel backed by a langchaingo llms.Model.
type Model struct {
	llm         llms.Model
	provider    string
	model       string
	temperature float64
	logger      *zap.Logger
}

// New builds the provider client described by cfg.
func New(cfg Config) (*Model, error) {
	llm, err := newLLM(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}
	return NewWithLLM(llm, cfg), nil
}

// NewWithLLM wraps an existing langchaingo model.
func NewWithLLM(llm llms.Model, cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		llm:         llm,
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

func newLLM(cfg Config) (llms.Model, error) {
	if cfg.Provider == ProviderOllama {
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		return ollama.New(opts...) //nolint:wrapcheck // wrapped by New
	}

	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...) //nolint:wrapcheck // wrapped by New
}

// Complete sends the chat prompt and returns the text of the first choice.
func (m *Model) Complete(
	ctx context.Context, messages []domain.Message, opts generation.CompletionOptions,
) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(m.temperature)}
	if opts.JSON {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	start := time.Now()
	resp, err := m.llm.GenerateContent(ctx, convertMessages(messages), callOpts...)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(m.provider, m.model, "error").Inc()
		m.logger.Debug("Chat completion failed",
			zap.String("provider", m.provider),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", fmt.Errorf("%s chat completion: %w", m.provider, err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(m.provider, m.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(m.provider, m.model).Observe(duration.Seconds())

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", errors.New("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	m.recordUsage(choice.GenerationInfo)

	return choice.Content, nil
}

func (m *Model) recordUsage(info map[string]any) {
	for key, kind := range map[string]string{
		"PromptTokens":     "prompt",
		"CompletionTokens": "completion",
	} {
		if n, ok := info[key].(int); ok && n > 0 {
			metrics.LLMTokensTotal.WithLabelValues(m.provider, m.model, kind).Add(float64(n))
		}
	}
}

func convertMessages(messages []domain.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		out = append(out, llms.TextParts(mapRole(msg.Role), msg.Content))
	}
	return out
}

func mapRole(role domain.Role) llms.ChatMessageType {
	switch role {
	case domain.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
