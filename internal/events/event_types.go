package events

import (
	"time"

	"github.com/spec-kit/support-bridge/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketArchived      EventType = "ticket_archived"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventMessageAppended     EventType = "message_appended"
	EventReplyReceived       EventType = "reply_received"
	EventRoomCommand         EventType = "room_command"
)

// MessageOrigin marks which side produced a log append. The bridge mirrors
// only web-originated appends outbound; bridge-ingested replies must never
// echo back to the platform.
type MessageOrigin string

const (
	OriginWeb    MessageOrigin = "web"
	OriginBridge MessageOrigin = "bridge"
)

// RoomAction names the control buttons posted into an external room.
type RoomAction string

const (
	RoomActionCreate RoomAction = "create"
	RoomActionClaim  RoomAction = "claim"
	RoomActionClose  RoomAction = "close"
	RoomActionDelete RoomAction = "delete"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	DisplayCode    string                `json:"display_code"`
	Subject        string                `json:"subject"`
	Category       string                `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	GuestEmail     *string               `json:"guest_email,omitempty"`
	RequesterRef   *string               `json:"requester_ref,omitempty"`
	InitialMessage *domain.Message       `json:"-"`
}

// TicketDeletedPayload payload. Deletion tears the room down; the canonical
// records are retained.
type TicketDeletedPayload struct {
	TranscriptURL string `json:"transcript_url,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// MessageAppendedPayload payload.
type MessageAppendedPayload struct {
	Message *domain.Message `json:"-"`
	Origin  MessageOrigin   `json:"origin"`
}

// ReplyReceivedPayload payload for a staff reply ingested from the platform.
type ReplyReceivedPayload struct {
	Message    *domain.Message `json:"-"`
	AuthorName string          `json:"author_name"`
}

// RoomCommandPayload carries a control-button press from the external room.
type RoomCommandPayload struct {
	Action  RoomAction `json:"action"`
	RoomID  string     `json:"room_id"`
	ActorID string     `json:"actor_id"`
}
