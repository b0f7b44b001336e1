package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// ValidStatus reports whether s is a known canonical status.
func ValidStatus(s TicketStatus) bool {
	return s == TicketStatusOpen || s == TicketStatusClosed
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	return p == TicketPriorityLow || p == TicketPriorityMedium || p == TicketPriorityHigh
}

// GuestEmailFallback is the sentinel identity substituted when a requester
// reference does not resolve to an existing account.
const GuestEmailFallback = "anonymous@guest.com"

// GuestEmailRetryFallback marks tickets recovered from a referential
// violation that escaped the pre-check.
const GuestEmailRetryFallback = "anonymous_retry@guest.com"

// Ticket is the aggregate for support requests. A ticket carries either a
// requester account reference or a guest email; never neither.
type Ticket struct {
	ID           string
	DisplayCode  string
	RequesterRef *string
	GuestEmail   *string
	Subject      string
	Category     string
	Priority     TicketPriority
	Status       TicketStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}
