package inquiry

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/inquirydesk/internal/db"
	dominq "github.com/kailas-cloud/inquirydesk/internal/domain/inquiry"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn  func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn  func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonMGetFn func(ctx context.Context, keys []string, path string) ([][]byte, error)
	delFn      func(ctx context.Context, key string) (bool, error)
	delMultiFn func(ctx context.Context, keys []string) (int, error)
	scanFn     func(ctx context.Context, pattern string) ([]string, error)
	incrFn     func(ctx context.Context, key string) (int64, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error) {
	if m.jsonMGetFn != nil {
		return m.jsonMGetFn(ctx, keys, path)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, key string) (bool, error) {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) (int, error) {
	if m.delMultiFn != nil {
		return m.delMultiFn(ctx, keys)
	}
	return len(keys), nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

func newTestValkeyRepo(t *testing.T) (*ValkeyRepo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return NewValkey(ms, "inquirydesk:"), ms
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testProcessed(t *testing.T) dominq.Inquiry {
	t.Helper()
	return dominq.NewProcessed("My order #123 never arrived", triage.Result{
		Category: triage.CategoryOrderStatus,
		Urgency:  triage.UrgencyHigh,
		Reply:    "We are sorry, we are checking with the carrier.",
	}, testNow)
}
