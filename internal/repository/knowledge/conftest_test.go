package knowledge

import (
	"context"
	"testing"

	"github.com/kailas-cloud/inquirydesk/internal/db"
)

// mockValkeyStore implements the consumer interface for tests.
type mockValkeyStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	dropIndexFn   func(ctx context.Context, name string) error
	scanFn        func(ctx context.Context, pattern string) ([]string, error)
	delMultiFn    func(ctx context.Context, keys []string) (int, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockValkeyStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockValkeyStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockValkeyStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return true, nil
}

func (m *mockValkeyStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockValkeyStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockValkeyStore) DelMulti(ctx context.Context, keys []string) (int, error) {
	if m.delMultiFn != nil {
		return m.delMultiFn(ctx, keys)
	}
	return len(keys), nil
}

func (m *mockValkeyStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestValkeyIndex(t *testing.T) (*ValkeyIndex, *mockValkeyStore) {
	t.Helper()
	ms := &mockValkeyStore{}
	idx := NewValkeyIndex(ms, ValkeyConfig{
		IndexName:  "customer-inquiries",
		KeyPrefix:  "inquirydesk:",
		Dimensions: 4,
		HNSW:       HNSWConfig{M: 16, EFConstruct: 200},
	})
	return idx, ms
}

func testVector() []float32 {
	return []float32{0.1, 0.2, 0.3, 0.4}
}
