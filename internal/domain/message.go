package domain

// Role identifies the author of a chat message sent to a language model.
type Role string

const (
	// RoleSystem carries instructions for the model.
	RoleSystem Role = "system"
	// RoleUser carries the customer's text.
	RoleUser Role = "user"
)

// Message is a single chat turn in a language model prompt.
type Message struct {
	Role    Role
	Content string
}
