package generation

import (
	"context"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
)

// CompletionOptions tunes a single language model call.
type CompletionOptions struct {
	// JSON asks the model for a single JSON object.
	JSON bool
}

// LanguageModel completes a chat prompt and returns the raw model text.
// The text is not guaranteed to be valid JSON even when JSON output was requested.
type LanguageModel interface {
	Complete(ctx context.Context, messages []domain.Message, opts CompletionOptions) (string, error)
}
