package platform

import (
	"context"
	"time"
)

// Action ids carried by the control buttons posted into a room. The panel
// button lives in the shared support channel and opens a new ticket.
const (
	ActionCreateTicket = "create_ticket"
	ActionClaimTicket  = "ticket_claim"
	ActionCloseTicket  = "ticket_close"
	ActionDeleteTicket = "ticket_delete"
)

// Field is a label/value pair rendered in a structured message.
type Field struct {
	Label string
	Value string
}

// Button is a control action attached to a message.
type Button struct {
	ActionID string
	Value    string
	Label    string
	Danger   bool
}

// Outbound is a platform-neutral structured message.
type Outbound struct {
	Title   string
	Body    string
	Fields  []Field
	Buttons []Button
}

// InboundMessage is a message-posted event received from the platform.
// Automated marks messages authored by bots or integrations; together with
// AuthorID it is the capability data the bridge uses for loop prevention.
type InboundMessage struct {
	RoomID    string
	AuthorID  string
	Text      string
	Automated bool
	Timestamp time.Time
}

// RoomCommand is a control-button press received from the platform. Value
// carries the ticket id for per-ticket buttons and is empty for the panel.
type RoomCommand struct {
	ActionID string
	Value    string
	RoomID   string
	ActorID  string
}

// ChatPlatform abstracts the external real-time chat platform. Room presence
// is never a precondition for ticket operations; every method is best-effort
// from the caller's point of view.
type ChatPlatform interface {
	// SelfID returns the bridge's own user identity on the platform.
	SelfID() string
	CreateRoom(ctx context.Context, name string) (string, error)
	PostMessage(ctx context.Context, roomID string, msg Outbound) error
	RenameRoom(ctx context.Context, roomID, name string) error
	ArchiveRoom(ctx context.Context, roomID string) error
	AuthorName(ctx context.Context, authorID string) (string, error)
}
