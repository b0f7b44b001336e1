package domain

import "time"

// SenderRole indicates which side of the conversation authored a message.
type SenderRole string

const (
	SenderRoleRequester SenderRole = "REQUESTER"
	SenderRoleAgent     SenderRole = "AGENT"
)

// ValidSenderRole reports whether r is a known role.
func ValidSenderRole(r SenderRole) bool {
	return r == SenderRoleRequester || r == SenderRoleAgent
}

// Message is one append-only log entry of a ticket's correspondence.
// Total order is created_at ascending with Seq breaking ties.
type Message struct {
	ID          string
	TicketID    string
	Seq         int64
	SenderRole  SenderRole
	Content     string
	Attachments []string
	CreatedAt   time.Time
}
