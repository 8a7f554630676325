package postgres

import (
	"context"
	"fmt"
)

// InquiriesTable stores processed and unprocessed customer inquiries.
const InquiriesTable = "inquiries"

// SchemaConfig describes the tables EnsureSchema creates.
type SchemaConfig struct {
	VectorTable       string // empty skips the pgvector table
	Dimensions        int
	HNSWM             int
	HNSWEFConstruct   int
	WithInquiryRecord bool
}

// EnsureSchema creates extensions, tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db DB, cfg SchemaConfig) error {
	for _, stmt := range schemaStatements(cfg) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(cfg SchemaConfig) []string {
	var stmts []string

	if cfg.VectorTable != "" {
		table := Ident(cfg.VectorTable)
		index := Ident(cfg.VectorTable + "_embedding_idx")
		m, ef := cfg.HNSWM, cfg.HNSWEFConstruct
		if m <= 0 {
			m = 16
		}
		if ef <= 0 {
			ef = 64
		}
		stmts = append(stmts,
			"CREATE EXTENSION IF NOT EXISTS vector",
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	embedding vector(%d) NOT NULL,
	document TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, table, cfg.Dimensions),
			fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d)",
				index, table, m, ef,
			),
		)
	}

	if cfg.WithInquiryRecord {
		stmts = append(stmts,
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	user_message TEXT NOT NULL,
	ai_category TEXT,
	ai_reply TEXT,
	urgency TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ
)`, InquiriesTable),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS inquiries_created_at_idx ON %s (created_at DESC)", InquiriesTable),
		)
	}

	return stmts
}
