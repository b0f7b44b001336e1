package dto

import (
	"time"

	"github.com/spec-kit/support-bridge/internal/domain"
	"github.com/spec-kit/support-bridge/internal/service"
	"github.com/spec-kit/support-bridge/internal/transcript"
)

// CreateTicketRequest is the payload for opening a ticket.
type CreateTicketRequest struct {
	RequesterRef   *string  `json:"requesterRef,omitempty"`
	GuestEmail     *string  `json:"guestEmail,omitempty"`
	Subject        string   `json:"subject"`
	Category       string   `json:"category,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	InitialMessage string   `json:"initialMessage,omitempty"`
	Attachments    []string `json:"attachments,omitempty"`
}

// ToInput converts the request to the service input.
func (r CreateTicketRequest) ToInput() service.CreateTicketInput {
	return service.CreateTicketInput{
		RequesterRef:   r.RequesterRef,
		GuestEmail:     r.GuestEmail,
		Subject:        r.Subject,
		Category:       r.Category,
		Priority:       domain.TicketPriority(r.Priority),
		InitialMessage: r.InitialMessage,
		Attachments:    r.Attachments,
	}
}

// AppendMessageRequest is the payload for adding a conversation entry.
type AppendMessageRequest struct {
	TicketID    string   `json:"ticketId"`
	SenderRole  string   `json:"senderRole"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

// UpdateStatusRequest is the payload for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CloseTicketRequest identifies the ticket to close.
type CloseTicketRequest struct {
	TicketID string `json:"ticketId"`
}

// TicketResponse is the API shape of a ticket.
type TicketResponse struct {
	ID           string     `json:"id"`
	DisplayCode  string     `json:"displayCode"`
	RequesterRef *string    `json:"requesterRef,omitempty"`
	GuestEmail   *string    `json:"guestEmail,omitempty"`
	Subject      string     `json:"subject"`
	Category     string     `json:"category"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		DisplayCode:  t.DisplayCode,
		RequesterRef: t.RequesterRef,
		GuestEmail:   t.GuestEmail,
		Subject:      t.Subject,
		Category:     t.Category,
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		ClosedAt:     t.ClosedAt,
	}
}

// FromTickets maps a slice of tickets.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i]))
	}
	return out
}

// MessageResponse is the API shape of a conversation entry.
type MessageResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticketId"`
	Seq         int64     `json:"seq"`
	SenderRole  string    `json:"senderRole"`
	Content     string    `json:"content"`
	Attachments []string  `json:"attachments,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FromMessage maps a domain message.
func FromMessage(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		TicketID:    m.TicketID,
		Seq:         m.Seq,
		SenderRole:  string(m.SenderRole),
		Content:     m.Content,
		Attachments: m.Attachments,
		CreatedAt:   m.CreatedAt,
	}
}

// FromMessages maps a slice of messages.
func FromMessages(messages []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, FromMessage(&messages[i]))
	}
	return out
}

// TranscriptResponse is the API shape of a stored transcript.
type TranscriptResponse struct {
	TicketID    string    `json:"ticketId"`
	Hash        string    `json:"hash"`
	HTML        string    `json:"html"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// FromTranscript maps a transcript document.
func FromTranscript(doc *transcript.Document) TranscriptResponse {
	return TranscriptResponse{
		TicketID:    doc.TicketID,
		Hash:        doc.Hash,
		HTML:        doc.HTML,
		GeneratedAt: doc.GeneratedAt,
	}
}
