package inquiry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/inquirydesk/internal/db"
	"github.com/kailas-cloud/inquirydesk/internal/domain"
	dominq "github.com/kailas-cloud/inquirydesk/internal/domain/inquiry"
)

// store is the consumer interface for inquiry records on Valkey (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) (bool, error)
	DelMulti(ctx context.Context, keys []string) (int, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// ValkeyRepo stores inquiries as JSON documents keyed by a sequence-assigned ID.
// All keys share the {inquiry} hash tag so multi-key commands stay on one cluster slot.
type ValkeyRepo struct {
	store     store
	keyPrefix string
}

// NewValkey creates a Valkey-backed inquiry repository.
func NewValkey(s store, keyPrefix string) *ValkeyRepo {
	return &ValkeyRepo{store: s, keyPrefix: keyPrefix}
}

// Create assigns the next ID and writes the record.
func (r *ValkeyRepo) Create(ctx context.Context, inq dominq.Inquiry) (dominq.Inquiry, error) {
	id, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return dominq.Inquiry{}, fmt.Errorf("next inquiry id: %w", err)
	}
	inq = inq.WithID(id)

	data, err := json.Marshal(toRecord(&inq))
	if err != nil {
		return dominq.Inquiry{}, fmt.Errorf("marshal inquiry %d: %w", id, err)
	}
	if err := r.store.JSONSet(ctx, r.recordKey(id), "$", data); err != nil {
		return dominq.Inquiry{}, fmt.Errorf("store inquiry %d: %w", id, err)
	}
	return inq, nil
}

// Get loads one inquiry.
func (r *ValkeyRepo) Get(ctx context.Context, id int64) (dominq.Inquiry, error) {
	data, err := r.store.JSONGet(ctx, r.recordKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dominq.Inquiry{}, domain.ErrNotFound
		}
		return dominq.Inquiry{}, fmt.Errorf("get inquiry %d: %w", id, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return dominq.Inquiry{}, fmt.Errorf("unmarshal inquiry %d: %w", id, err)
	}
	return rec.toDomain(), nil
}

// List returns inquiries newest first (highest ID first), skipping `skip` and returning at most `limit`.
func (r *ValkeyRepo) List(ctx context.Context, skip, limit int) ([]dominq.Inquiry, error) {
	keys, err := r.store.Scan(ctx, r.recordPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan inquiries: %w", err)
	}

	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(k, r.recordPrefix()), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	if skip >= len(ids) {
		return []dominq.Inquiry{}, nil
	}
	ids = ids[skip:]
	if limit < len(ids) {
		ids = ids[:limit]
	}

	page := make([]string, len(ids))
	for i, id := range ids {
		page[i] = r.recordKey(id)
	}

	raws, err := r.store.JSONMGet(ctx, page, ".")
	if err != nil {
		return nil, fmt.Errorf("load inquiries: %w", err)
	}

	out := make([]dominq.Inquiry, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue // deleted between SCAN and MGET
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal inquiry %d: %w", ids[i], err)
		}
		out = append(out, rec.toDomain())
	}
	return out, nil
}

// Delete removes one inquiry.
func (r *ValkeyRepo) Delete(ctx context.Context, id int64) error {
	existed, err := r.store.Del(ctx, r.recordKey(id))
	if err != nil {
		return fmt.Errorf("delete inquiry %d: %w", id, err)
	}
	if !existed {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAll removes every inquiry and returns how many were deleted. The ID sequence is kept.
func (r *ValkeyRepo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.recordPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("scan inquiries: %w", err)
	}
	n, err := r.store.DelMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("delete inquiries: %w", err)
	}
	return n, nil
}

func (r *ValkeyRepo) seqKey() string {
	return r.keyPrefix + "{inquiry}:seq"
}

func (r *ValkeyRepo) recordPrefix() string {
	return r.keyPrefix + "{inquiry}:rec:"
}

func (r *ValkeyRepo) recordKey(id int64) string {
	return r.recordPrefix() + strconv.FormatInt(id, 10)
}
