package langchain

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
	"github.com/kailas-cloud/inquirydesk/internal/usecase/generation"
)

func TestMain(m *testing.M) {
	metrics.RegisterLLMMetrics()
	os.Exit(m.Run())
}

type fakeLLM struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeLLM) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeLLM) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func textResponse(content string, info map[string]any) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content, GenerationInfo: info}},
	}
}

var prompt = []domain.Message{
	{Role: domain.RoleSystem, Content: "classify"},
	{Role: domain.RoleUser, Content: "my card was charged twice"},
}

func TestModel_Complete(t *testing.T) {
	t.Run("Should convert roles and return the first choice", func(t *testing.T) {
		fake := &fakeLLM{resp: textResponse(`{"ok":true}`, nil)}
		m := NewWithLLM(fake, Config{Provider: "test", Model: "convert", Temperature: 0.2})

		out, err := m.Complete(context.Background(), prompt, generation.CompletionOptions{})

		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, out)
		require.Len(t, fake.messages, 2)
		assert.Equal(t, llms.ChatMessageTypeSystem, fake.messages[0].Role)
		assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[1].Role)
		assert.Equal(t, llms.TextContent{Text: "my card was charged twice"}, fake.messages[1].Parts[0])
		assert.InDelta(t, 0.2, fake.opts.Temperature, 1e-9)
		assert.False(t, fake.opts.JSONMode)
	})

	t.Run("Should request JSON mode when asked", func(t *testing.T) {
		fake := &fakeLLM{resp: textResponse("{}", nil)}
		m := NewWithLLM(fake, Config{Provider: "test", Model: "json"})

		_, err := m.Complete(context.Background(), prompt, generation.CompletionOptions{JSON: true})

		require.NoError(t, err)
		assert.True(t, fake.opts.JSONMode)
	})

	t.Run("Should wrap provider errors and count them", func(t *testing.T) {
		fake := &fakeLLM{err: errors.New("rate limited")}
		m := NewWithLLM(fake, Config{Provider: "test", Model: "failing"})

		_, err := m.Complete(context.Background(), prompt, generation.CompletionOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.LLMRequestsTotal.WithLabelValues("test", "failing", "error")), 1e-9)
	})

	t.Run("Should fail on an empty choice list", func(t *testing.T) {
		fake := &fakeLLM{resp: &llms.ContentResponse{}}
		m := NewWithLLM(fake, Config{Provider: "test", Model: "empty"})

		_, err := m.Complete(context.Background(), prompt, generation.CompletionOptions{})

		require.Error(t, err)
	})

	t.Run("Should record token usage from generation info", func(t *testing.T) {
		fake := &fakeLLM{resp: textResponse("{}", map[string]any{
			"PromptTokens":     120,
			"CompletionTokens": 30,
		})}
		m := NewWithLLM(fake, Config{Provider: "test", Model: "usage"})

		_, err := m.Complete(context.Background(), prompt, generation.CompletionOptions{})

		require.NoError(t, err)
		assert.InDelta(t, 120, testutil.ToFloat64(metrics.LLMTokensTotal.WithLabelValues("test", "usage", "prompt")), 1e-9)
		assert.InDelta(t, 30, testutil.ToFloat64(metrics.LLMTokensTotal.WithLabelValues("test", "usage", "completion")), 1e-9)
	})
}

func TestNew_Providers(t *testing.T) {
	t.Run("Should build an OpenAI-compatible client", func(t *testing.T) {
		m, err := New(Config{Provider: "groq", BaseURL: "https://api.groq.com/openai/v1", APIKey: "k", Model: "llama"})
		require.NoError(t, err)
		assert.NotNil(t, m.llm)
	})

	t.Run("Should build an Ollama client", func(t *testing.T) {
		m, err := New(Config{Provider: ProviderOllama, BaseURL: "http://localhost:11434", Model: "llama3"})
		require.NoError(t, err)
		assert.NotNil(t, m.llm)
	})
}
