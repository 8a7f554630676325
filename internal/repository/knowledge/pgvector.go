package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/inquirydesk/internal/db/postgres"
	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
)

// PGVectorConfig describes the pgvector table holding reference documents.
type PGVectorConfig struct {
	Table      string
	Dimensions int
	HNSW       HNSWConfig
}

// PGVectorIndex is a retrieval.Index over a Postgres table with a pgvector column.
type PGVectorIndex struct {
	db  postgres.DB
	cfg PGVectorConfig
}

var _ retrieval.Index = (*PGVectorIndex)(nil)

// NewPGVectorIndex creates a pgvector-backed knowledge index.
func NewPGVectorIndex(db postgres.DB, cfg PGVectorConfig) *PGVectorIndex {
	return &PGVectorIndex{db: db, cfg: cfg}
}

type matchRow struct {
	ID       string  `db:"id"`
	Document string  `db:"document"`
	Metadata []byte  `db:"metadata"`
	Score    float64 `db:"score"`
}

// Search returns the k nearest rows by cosine distance, scored as 1 - distance.
func (p *PGVectorIndex) Search(ctx context.Context, vector []float32, k int) ([]retrieval.Match, error) {
	if p.cfg.Dimensions > 0 && len(vector) != p.cfg.Dimensions {
		return nil, fmt.Errorf("search %s: got %d, want %d: %w",
			p.cfg.Table, len(vector), p.cfg.Dimensions, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		k = retrieval.DefaultK
	}

	vec := pgvector.NewVector(vector)
	query, args, err := squirrel.Select("id", "document", "metadata").
		Column("1 - (embedding <=> ?) AS score", vec).
		From(postgres.Ident(p.cfg.Table)).
		OrderByClause("embedding <=> ? ASC", vec).
		Limit(uint64(k)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building search query: %w", err)
	}

	var rows []matchRow
	if err := pgxscan.Select(ctx, p.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search %s: %w", p.cfg.Table, err)
	}

	matches := make([]retrieval.Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, toMatch(r.Document, r.Metadata, r.Score))
	}
	return matches, nil
}

// Exists reports whether the knowledge table is present.
func (p *PGVectorIndex) Exists(ctx context.Context) (bool, error) {
	var ok bool
	if err := p.db.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", p.cfg.Table).Scan(&ok); err != nil {
		return false, fmt.Errorf("check table %s: %w", p.cfg.Table, err)
	}
	return ok, nil
}

// EnsureIndex creates the extension, table and HNSW index.
func (p *PGVectorIndex) EnsureIndex(ctx context.Context) error {
	return postgres.EnsureSchema(ctx, p.db, postgres.SchemaConfig{ //nolint:wrapcheck // already wrapped
		VectorTable:     p.cfg.Table,
		Dimensions:      p.cfg.Dimensions,
		HNSWM:           p.cfg.HNSW.M,
		HNSWEFConstruct: p.cfg.HNSW.EFConstruct,
	})
}

// Drop deletes every row and drops the knowledge table.
// It returns the number of deleted documents.
func (p *PGVectorIndex) Drop(ctx context.Context) (int, error) {
	exists, err := p.Exists(ctx)
	if err != nil || !exists {
		return 0, err
	}

	table := postgres.Ident(p.cfg.Table)
	tag, err := p.db.Exec(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", p.cfg.Table, err)
	}
	if _, err := p.db.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return 0, fmt.Errorf("drop %s: %w", p.cfg.Table, err)
	}
	return int(tag.RowsAffected()), nil
}

// Upsert inserts or replaces entries inside one transaction.
func (p *PGVectorIndex) Upsert(ctx context.Context, entries []Entry) (err error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("rollback failed: %w; original error: %w", rbErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("commit: %w", commitErr)
		}
	}()

	now := time.Now().UTC()
	for _, e := range entries {
		if len(e.Vector) != p.cfg.Dimensions {
			return fmt.Errorf("entry %s: got %d, want %d: %w",
				e.ID, len(e.Vector), p.cfg.Dimensions, domain.ErrVectorDimMismatch)
		}
		md, mdErr := encodeMetadata(e.Metadata)
		if mdErr != nil {
			return fmt.Errorf("entry %s: %w", e.ID, mdErr)
		}

		query, args, buildErr := squirrel.Insert(postgres.Ident(p.cfg.Table)).
			Columns("id", "embedding", "document", "metadata", "updated_at").
			Values(e.ID, pgvector.NewVector(e.Vector), e.Text, md, now).
			Suffix("ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, " +
				"document = EXCLUDED.document, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("building upsert query: %w", buildErr)
		}
		if _, execErr := tx.Exec(ctx, query, args...); execErr != nil {
			return fmt.Errorf("upsert %s: %w", e.ID, execErr)
		}
	}
	return nil
}
