package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/inquirydesk/internal/db"
	"github.com/kailas-cloud/inquirydesk/internal/db/valkey"
	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
)

const (
	fieldContent  = "content"
	fieldMetadata = "metadata"
	fieldCategory = "category"
	fieldVector   = "vector"
)

// valkeyStore is the consumer interface for the Valkey knowledge index (ISP).
type valkeyStore interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	DropIndex(ctx context.Context, name string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	DelMulti(ctx context.Context, keys []string) (int, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// ValkeyConfig describes the FT index holding reference documents.
type ValkeyConfig struct {
	IndexName  string
	KeyPrefix  string
	Dimensions int
	HNSW       HNSWConfig
}

// ValkeyIndex is a retrieval.Index over a Valkey FT vector index of hashes.
type ValkeyIndex struct {
	store valkeyStore
	cfg   ValkeyConfig
}

var _ retrieval.Index = (*ValkeyIndex)(nil)

// NewValkeyIndex creates a Valkey-backed knowledge index.
func NewValkeyIndex(s valkeyStore, cfg ValkeyConfig) *ValkeyIndex {
	return &ValkeyIndex{store: s, cfg: cfg}
}

// Search returns the k nearest documents with cosine similarity scores.
func (v *ValkeyIndex) Search(ctx context.Context, vector []float32, k int) ([]retrieval.Match, error) {
	if v.cfg.Dimensions > 0 && len(vector) != v.cfg.Dimensions {
		return nil, fmt.Errorf("search %s: got %d, want %d: %w",
			v.cfg.IndexName, len(vector), v.cfg.Dimensions, domain.ErrVectorDimMismatch)
	}

	sr, err := v.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    v.cfg.IndexName,
		VectorField:  fieldVector,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldContent, fieldMetadata, "__vector_score"},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("search %s: %w: %w", v.cfg.IndexName, domain.ErrIndexUnavailable, err)
		}
		return nil, fmt.Errorf("search %s: %w", v.cfg.IndexName, err)
	}
	if sr == nil {
		return nil, nil
	}

	matches := make([]retrieval.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		matches = append(matches, toMatch(e.Fields[fieldContent], []byte(e.Fields[fieldMetadata]), e.Score))
	}
	return matches, nil
}

// Exists reports whether the FT index has been created.
func (v *ValkeyIndex) Exists(ctx context.Context) (bool, error) {
	ok, err := v.store.IndexExists(ctx, v.cfg.IndexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", v.cfg.IndexName, err)
	}
	return ok, nil
}

// EnsureIndex runs FT.CREATE unless the index is already present.
func (v *ValkeyIndex) EnsureIndex(ctx context.Context) error {
	exists, err := v.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	def, err := v.indexDefinition()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := v.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", v.cfg.IndexName, err)
	}
	return nil
}

// Drop removes the FT index and every document hash under its prefix.
// It returns the number of deleted documents.
func (v *ValkeyIndex) Drop(ctx context.Context) (int, error) {
	if err := v.store.DropIndex(ctx, v.cfg.IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return 0, fmt.Errorf("drop index %s: %w", v.cfg.IndexName, err)
	}

	keys, err := v.store.Scan(ctx, v.documentPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("scan documents: %w", err)
	}
	n, err := v.store.DelMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("delete %d documents: %w", len(keys), err)
	}
	return n, nil
}

// Upsert writes entries as hashes in a single pipeline.
func (v *ValkeyIndex) Upsert(ctx context.Context, entries []Entry) error {
	items := make([]db.HashSetItem, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector) != v.cfg.Dimensions {
			return fmt.Errorf("entry %s: got %d, want %d: %w",
				e.ID, len(e.Vector), v.cfg.Dimensions, domain.ErrVectorDimMismatch)
		}
		md, err := encodeMetadata(e.Metadata)
		if err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		fields := map[string]string{
			fieldContent:  e.Text,
			fieldMetadata: string(md),
			fieldVector:   valkey.VectorToBytes(e.Vector),
		}
		if cat, ok := e.Metadata[fieldCategory].(string); ok {
			fields[fieldCategory] = cat
		}
		items = append(items, db.HashSetItem{Key: v.documentKey(e.ID), Fields: fields})
	}

	if err := v.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d entries: %w", len(items), err)
	}
	return nil
}

func (v *ValkeyIndex) documentPrefix() string {
	return v.cfg.KeyPrefix + "kb:"
}

func (v *ValkeyIndex) documentKey(id string) string {
	return v.documentPrefix() + id
}

func (v *ValkeyIndex) indexDefinition() (*db.IndexDefinition, error) {
	return db.NewIndex(v.cfg.IndexName).
		Prefix(v.documentPrefix()).
		Tag(fieldCategory).
		VectorHNSW(fieldVector, v.cfg.Dimensions, db.DistanceCosine, v.cfg.HNSW.M, v.cfg.HNSW.EFConstruct).
		Build()
}
