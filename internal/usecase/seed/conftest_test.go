package seed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/repository/knowledge"
)

// mockEmbedder returns one-dimensional vectors and fails the first failFirst calls.
type mockEmbedder struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	err       error
	short     bool
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failFirst {
		return domain.BatchEmbeddingResult{}, m.err
	}
	n := len(texts)
	if m.short {
		n--
	}
	embs := make([][]float32, n)
	for i := range embs {
		embs[i] = []float32{float32(len(texts[i]))}
	}
	return domain.BatchEmbeddingResult{Embeddings: embs}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockIndex struct {
	mu        sync.Mutex
	ensureErr error
	upsertErr error
	ensured   bool
	entries   map[string]knowledge.Entry
}

func newMockIndex() *mockIndex {
	return &mockIndex{entries: make(map[string]knowledge.Entry)}
}

func (m *mockIndex) EnsureIndex(context.Context) error {
	m.ensured = true
	return m.ensureErr
}

func (m *mockIndex) Upsert(_ context.Context, entries []knowledge.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func testDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{
			Text:     fmt.Sprintf("Refunds are processed within %d business days.", i+1),
			Metadata: map[string]any{"category": "Refund"},
		}
	}
	return docs
}

func fastOptions() Options {
	return Options{BatchSize: 2, Workers: 3, MaxRetries: 2, RetryDelay: time.Millisecond}
}
