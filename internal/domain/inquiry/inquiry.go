package inquiry

import (
	"time"

	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
)

// Inquiry is a persisted customer inquiry with its optional triage result.
type Inquiry struct {
	id          int64
	userMessage string
	category    *string
	urgency     *string
	reply       *string
	createdAt   time.Time
	updatedAt   *time.Time
}

// New creates an unprocessed Inquiry. Any text is accepted, including empty.
// The ID is assigned by storage.
func New(userMessage string, now time.Time) Inquiry {
	return Inquiry{userMessage: userMessage, createdAt: now.UTC()}
}

// NewProcessed creates an Inquiry carrying the triage result.
func NewProcessed(userMessage string, res triage.Result, now time.Time) Inquiry {
	inq := New(userMessage, now)
	inq.category = &res.Category
	inq.urgency = &res.Urgency
	inq.reply = &res.Reply
	return inq
}

// Reconstruct creates an Inquiry from stored fields.
func Reconstruct(
	id int64, userMessage string, category, urgency, reply *string,
	createdAt time.Time, updatedAt *time.Time,
) Inquiry {
	return Inquiry{
		id: id, userMessage: userMessage,
		category: category, urgency: urgency, reply: reply,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the storage-assigned identifier (0 before persisting).
func (i *Inquiry) ID() int64 { return i.id }

// UserMessage returns the customer's inquiry text.
func (i *Inquiry) UserMessage() string { return i.userMessage }

// Category returns the assigned category, nil if not processed.
func (i *Inquiry) Category() *string { return i.category }

// Urgency returns the assigned urgency, nil if not processed.
func (i *Inquiry) Urgency() *string { return i.urgency }

// Reply returns the drafted reply, nil if not processed.
func (i *Inquiry) Reply() *string { return i.reply }

// CreatedAt returns the creation time.
func (i *Inquiry) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the last update time, nil if never updated.
func (i *Inquiry) UpdatedAt() *time.Time { return i.updatedAt }

// Processed reports whether a triage result is attached.
func (i *Inquiry) Processed() bool { return i.reply != nil }

// WithID returns a copy with the given identifier.
func (i *Inquiry) WithID(id int64) Inquiry {
	c := *i
	c.id = id
	return c
}
