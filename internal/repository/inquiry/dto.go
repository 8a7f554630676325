package inquiry

import (
	"time"

	dominq "github.com/kailas-cloud/inquirydesk/internal/domain/inquiry"
)

// record is the storage shape of an inquiry, shared by the JSON and SQL repositories.
type record struct {
	ID          int64      `json:"id" db:"id"`
	UserMessage string     `json:"user_message" db:"user_message"`
	Category    *string    `json:"ai_category,omitempty" db:"ai_category"`
	Reply       *string    `json:"ai_reply,omitempty" db:"ai_reply"`
	Urgency     *string    `json:"urgency,omitempty" db:"urgency"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

func toRecord(inq *dominq.Inquiry) record {
	return record{
		ID:          inq.ID(),
		UserMessage: inq.UserMessage(),
		Category:    inq.Category(),
		Reply:       inq.Reply(),
		Urgency:     inq.Urgency(),
		CreatedAt:   inq.CreatedAt(),
		UpdatedAt:   inq.UpdatedAt(),
	}
}

func (r *record) toDomain() dominq.Inquiry {
	return dominq.Reconstruct(r.ID, r.UserMessage, r.Category, r.Urgency, r.Reply, r.CreatedAt, r.UpdatedAt)
}
