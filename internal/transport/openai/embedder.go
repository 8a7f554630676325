package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
)

// Embedder is an embedding provider speaking the OpenAI-compatible embeddings API
// (Hugging Face TEI, OpenAI, Nebius and similar).
type Embedder struct {
	client            *openai.Client
	model             openai.EmbeddingModel
	dimensions        int
	requestDimensions bool
	user              string
	provider          string
	logger            *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int // expected vector size; 0 skips validation
	// RequestDimensions sends Dimensions in the request. Only Matryoshka models accept it.
	RequestDimensions bool
	User              string
	Provider          string
	Logger            *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:            openai.NewClientWithConfig(clientCfg),
		model:             openai.EmbeddingModel(cfg.Model),
		dimensions:        cfg.Dimensions,
		requestDimensions: cfg.RequestDimensions,
		user:              cfg.User,
		provider:          cfg.Provider,
		logger:            logger,
	}
}

// Embed implements domain.Embedder. Returns the vector and usage with transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	resp, err := e.create(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if len(resp.Data) == 0 {
		e.countError("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	vec := resp.Data[0].Embedding
	if err := e.checkDimensions(vec); err != nil {
		return domain.EmbeddingResult{}, err
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder with a single API request.
// Vectors are returned in input order regardless of the order the provider lists them.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	resp, err := e.create(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	if len(resp.Data) != len(texts) {
		e.countError("count_mismatch")
		return domain.BatchEmbeddingResult{}, fmt.Errorf("got %d embeddings for %d texts: %w",
			len(resp.Data), len(texts), domain.ErrEmbeddingProviderError)
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if err := e.checkDimensions(d.Embedding); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embedding %d: %w", i, err)
		}
		embeddings[i] = d.Embedding
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Embedder) create(ctx context.Context, input []string) (openai.EmbeddingResponse, error) {
	req := openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.requestDimensions && e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)
	model := string(e.model)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		e.countError("api_error")
		e.logger.Debug("Embedding API call failed",
			zap.String("provider", e.provider),
			zap.Int("inputs", len(input)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return openai.EmbeddingResponse{}, parseAPIError(err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return resp, nil
}

func (e *Embedder) checkDimensions(vec []float32) error {
	if e.dimensions > 0 && len(vec) != e.dimensions {
		e.countError("dimension_mismatch")
		return fmt.Errorf("model %s returned %d dimensions, want %d: %w",
			e.model, len(vec), e.dimensions, domain.ErrVectorDimMismatch)
	}
	return nil
}

func (e *Embedder) countError(kind string) {
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), kind).Inc()
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbeddingProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w: %w", wrap, err)
}

// extractDetail reads the error text from TEI ({"error": "..."}) or FastAPI ({"detail": "..."}) bodies.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  any    `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	if s, ok := parsed.Error.(string); ok {
		return s
	}
	return ""
}
