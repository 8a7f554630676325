package inquiry

import (
	"context"

	dominq "github.com/kailas-cloud/inquirydesk/internal/domain/inquiry"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
)

// Repository defines the storage contract for inquiry records.
type Repository interface {
	Create(ctx context.Context, inq dominq.Inquiry) (dominq.Inquiry, error)
	Get(ctx context.Context, id int64) (dominq.Inquiry, error)
	List(ctx context.Context, skip, limit int) ([]dominq.Inquiry, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int, error)
}

// Processor classifies an inquiry and drafts a reply. It never fails.
type Processor interface {
	Process(ctx context.Context, userMessage string) triage.Result
}
