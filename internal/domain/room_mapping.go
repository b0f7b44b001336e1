package domain

import "time"

// RoomState tracks the external room's label independently of the ticket's
// canonical status. Archiving relabels the room without closing the ticket.
type RoomState string

const (
	RoomStateActive   RoomState = "ACTIVE"
	RoomStateArchived RoomState = "ARCHIVED"
)

// RoomMapping associates a ticket with its room on the external chat
// platform. At most one mapping exists per ticket; absence is valid.
type RoomMapping struct {
	TicketID  string
	RoomID    string
	ParentID  string
	RoomState RoomState
	CreatedAt time.Time
}
