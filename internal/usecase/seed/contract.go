package seed

import (
	"context"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/repository/knowledge"
)

// Embedder vectorizes reference documents in batches.
type Embedder interface {
	domain.BatchEmbedder
}

// Index stores reference documents with their vectors.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, entries []knowledge.Entry) error
}
