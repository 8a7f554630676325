package chi

import (
	"time"

	dominq "github.com/kailas-cloud/inquirydesk/internal/domain/inquiry"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "inquiry_not_found"
	codeProviderError    = "provider_error"
	codeInternalError    = "internal_error"
	codeBodyTooLarge     = "payload_too_large"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageRequest is the body of POST /process and POST /inquiries/create.
// A pointer keeps an explicit empty string distinguishable from a missing field.
type MessageRequest struct {
	UserMessage *string `json:"user_message" validate:"required"`
}

// InquiryResponse is the JSON shape of a stored inquiry.
type InquiryResponse struct {
	ID          int64      `json:"id"`
	UserMessage string     `json:"user_message"`
	Category    *string    `json:"ai_category"`
	Reply       *string    `json:"ai_reply"`
	Urgency     *string    `json:"urgency"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// MessageResponse carries a human-readable status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// OKResponse acknowledges a deletion.
type OKResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func inquiryToResponse(inq dominq.Inquiry) InquiryResponse {
	return InquiryResponse{
		ID:          inq.ID(),
		UserMessage: inq.UserMessage(),
		Category:    inq.Category(),
		Reply:       inq.Reply(),
		Urgency:     inq.Urgency(),
		CreatedAt:   inq.CreatedAt().UTC(),
		UpdatedAt:   inq.UpdatedAt(),
	}
}
