package pipeline

import (
	"context"

	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
)

// Retriever finds reference documents for an inquiry. It must not fail.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []domret.Document
}

// Generator drafts the structured result. It must not fail.
type Generator interface {
	Generate(ctx context.Context, query string, docs []domret.Document) triage.Result
}
