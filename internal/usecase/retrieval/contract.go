package retrieval

import (
	"context"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
)

// Embedder vectorizes the customer's query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index finds the documents nearest to a query vector.
type Index = domret.Index
