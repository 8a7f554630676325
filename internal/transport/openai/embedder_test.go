package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// openaiEmbeddingResponse mirrors the OpenAI-compatible API embedding response.
type openaiEmbeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func newEmbeddingServer(t *testing.T, tokens int, data ...embeddingData) (*httptest.Server, *embeddingRequest) {
	t.Helper()
	var got embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		resp := openaiEmbeddingResponse{Object: "list", Model: "test-model", Data: data}
		resp.Usage.PromptTokens = tokens
		resp.Usage.TotalTokens = tokens

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func newTestEmbedder(url string, dims int) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "test-model",
		Dimensions: dims,
		Provider:   "test",
		Logger:     zap.NewNop(),
	})
}

func TestEmbedder_Embed(t *testing.T) {
	expectedVec := []float32{0.1, 0.2, 0.3, 0.4}
	server, req := newEmbeddingServer(t, 42, embeddingData{Object: "embedding", Embedding: expectedVec})

	result, err := newTestEmbedder(server.URL, 4).Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != 4 || result.Embedding[3] != 0.4 {
		t.Errorf("unexpected embedding %v", result.Embedding)
	}
	if result.PromptTokens != 42 || result.TotalTokens != 42 {
		t.Errorf("unexpected usage %+v", result)
	}
	if len(req.Input) != 1 || req.Input[0] != "hello" || req.Model != "test-model" {
		t.Errorf("unexpected request %+v", req)
	}
	if req.Dimensions != 0 {
		t.Errorf("dimensions must not be sent by default, got %d", req.Dimensions)
	}
}

func TestEmbedder_RequestDimensions(t *testing.T) {
	server, req := newEmbeddingServer(t, 1, embeddingData{Embedding: []float32{1, 2}})

	emb := NewEmbedder(&Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		Model:             "test-model",
		Dimensions:        2,
		RequestDimensions: true,
	})
	if _, err := emb.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if req.Dimensions != 2 {
		t.Errorf("expected dimensions=2 in request, got %d", req.Dimensions)
	}
}

func TestEmbedder_DimensionMismatch(t *testing.T) {
	server, _ := newEmbeddingServer(t, 1, embeddingData{Embedding: []float32{0.1, 0.2, 0.3}})

	_, err := newTestEmbedder(server.URL, 384).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	server, _ := newEmbeddingServer(t, 0)

	_, err := newTestEmbedder(server.URL, 0).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_BatchEmbed(t *testing.T) {
	// Vectors listed out of order: the result must follow Index.
	server, req := newEmbeddingServer(t, 20,
		embeddingData{Object: "embedding", Embedding: []float32{0.3, 0.4}, Index: 1},
		embeddingData{Object: "embedding", Embedding: []float32{0.1, 0.2}, Index: 0},
	)

	result, err := newTestEmbedder(server.URL, 2).BatchEmbed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}
	if len(result.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(result.Embeddings))
	}
	if result.Embeddings[0][0] != 0.1 || result.Embeddings[1][0] != 0.3 {
		t.Errorf("order not restored: %v", result.Embeddings)
	}
	if result.TotalTokens != 20 {
		t.Errorf("expected TotalTokens=20, got %d", result.TotalTokens)
	}
	if len(req.Input) != 2 {
		t.Errorf("expected one request with 2 inputs, got %v", req.Input)
	}
}

func TestEmbedder_BatchEmbed_Empty(t *testing.T) {
	result, err := newTestEmbedder("http://unused", 0).BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embeddings != nil {
		t.Errorf("expected nil embeddings for empty input, got %v", result.Embeddings)
	}
}

func TestEmbedder_BatchEmbed_CountMismatch(t *testing.T) {
	server, _ := newEmbeddingServer(t, 5, embeddingData{Embedding: []float32{0.1}})

	_, err := newTestEmbedder(server.URL, 0).BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL, 0).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError for 429 response, got %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"model not loaded"}`, "model not loaded"},
		{`{"error":"Input validation error","error_type":"Validation"}`, "Input validation error"},
		{`{"error":{"message":"nested"}}`, ""},
		{`not json`, ""},
	}
	for _, tt := range tests {
		if got := extractDetail([]byte(tt.body)); got != tt.want {
			t.Errorf("extractDetail(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
