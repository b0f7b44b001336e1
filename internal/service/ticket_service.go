package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bridge/internal/domain"
	"github.com/spec-kit/support-bridge/internal/events"
	"github.com/spec-kit/support-bridge/internal/repository"
	"github.com/spec-kit/support-bridge/internal/transcript"
	"github.com/spec-kit/support-bridge/pkg/errorutil"
)

// CreateTicketInput carries the fields accepted when opening a ticket.
type CreateTicketInput struct {
	RequesterRef   *string
	GuestEmail     *string
	Subject        string
	Category       string
	Priority       domain.TicketPriority
	InitialMessage string
	Attachments    []string
}

// AppendMessageInput carries a new conversation entry.
type AppendMessageInput struct {
	TicketID    string
	SenderRole  domain.SenderRole
	Content     string
	Attachments []string
}

// ListTicketsInput carries listing filters.
type ListTicketsInput struct {
	RequesterRef *string
	Limit        int
	Offset       int
}

const (
	defaultCategory = "general"
	defaultLimit    = 20
	maxLimit        = 100
)

// TicketService implements the ticket lifecycle. All platform-room behavior
// hangs off the events it publishes; the service itself never talks to the
// external platform.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.MessageRepository
	accounts    repository.AccountRepository
	dispatcher  events.Dispatcher
	transcripts transcript.Store
	logger      *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(
	tickets repository.TicketRepository,
	messages repository.MessageRepository,
	accounts repository.AccountRepository,
	dispatcher events.Dispatcher,
	transcripts transcript.Store,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		tickets:     tickets,
		messages:    messages,
		accounts:    accounts,
		dispatcher:  dispatcher,
		transcripts: transcripts,
		logger:      logger,
	}
}

// Create opens a ticket. A requester reference that does not resolve to an
// existing account is downgraded to the guest identity rather than rejected;
// a referential violation that slips past the pre-check is retried exactly
// once with the retry sentinel so the submission is never lost.
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, errorutil.NewValidationError("subject is required", nil)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = defaultCategory
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, errorutil.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	requesterRef := input.RequesterRef
	guestEmail := input.GuestEmail
	if requesterRef != nil {
		exists, err := s.accounts.Exists(ctx, *requesterRef)
		if err != nil {
			return nil, errorutil.NewUnavailable("account store", err)
		}
		if !exists {
			s.logger.Info("requester reference unresolved, using guest identity",
				zap.String("requester_ref", *requesterRef))
			requesterRef = nil
			if guestEmail == nil || strings.TrimSpace(*guestEmail) == "" {
				fallback := domain.GuestEmailFallback
				guestEmail = &fallback
			}
		}
	}
	if requesterRef == nil && (guestEmail == nil || strings.TrimSpace(*guestEmail) == "") {
		return nil, errorutil.NewValidationError("requester reference or guest email is required", nil)
	}

	ticket := &domain.Ticket{
		DisplayCode:  generateDisplayCode(),
		RequesterRef: requesterRef,
		GuestEmail:   guestEmail,
		Subject:      subject,
		Category:     category,
		Priority:     priority,
		Status:       domain.TicketStatusOpen,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if !errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, errorutil.ToDomainError(err)
		}
		s.logger.Warn("requester reference vanished between check and insert, retrying as guest",
			zap.String("display_code", ticket.DisplayCode))
		retry := domain.GuestEmailRetryFallback
		ticket.RequesterRef = nil
		ticket.GuestEmail = &retry
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return nil, errorutil.ToDomainError(err)
		}
	}

	var initial *domain.Message
	if content := strings.TrimSpace(input.InitialMessage); content != "" {
		initial = &domain.Message{
			TicketID:    ticket.ID,
			SenderRole:  domain.SenderRoleRequester,
			Content:     content,
			Attachments: input.Attachments,
		}
		if err := s.messages.Append(ctx, initial); err != nil {
			return nil, errorutil.ToDomainError(err)
		}
	}

	// synchronous publish: room creation completes before Create returns
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.TicketCreatedPayload{
			DisplayCode:    ticket.DisplayCode,
			Subject:        ticket.Subject,
			Category:       ticket.Category,
			Priority:       ticket.Priority,
			GuestEmail:     ticket.GuestEmail,
			RequesterRef:   ticket.RequesterRef,
			InitialMessage: initial,
		},
	})

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("display_code", ticket.DisplayCode))
	return ticket, nil
}

// Get returns a ticket by id.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	return ticket, nil
}

// List returns tickets, optionally filtered to one requester, newest first.
func (s *TicketService) List(ctx context.Context, input ListTicketsInput) ([]domain.Ticket, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}
	tickets, err := s.tickets.List(ctx, input.RequesterRef, limit, offset)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	return tickets, nil
}

// AppendMessage appends a conversation entry to an existing ticket and
// announces it as a web-originated append.
func (s *TicketService) AppendMessage(ctx context.Context, input AppendMessageInput) (*domain.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errorutil.NewValidationError("content is required", nil)
	}
	if !domain.ValidSenderRole(input.SenderRole) {
		return nil, errorutil.NewValidationError("invalid sender role", map[string]any{"role": input.SenderRole})
	}
	if _, err := s.tickets.GetByID(ctx, input.TicketID); err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	msg := &domain.Message{
		TicketID:    input.TicketID,
		SenderRole:  input.SenderRole,
		Content:     content,
		Attachments: input.Attachments,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMessageAppended,
		TicketID:  input.TicketID,
		Timestamp: time.Now().UTC(),
		Payload: events.MessageAppendedPayload{
			Message: msg,
			Origin:  events.OriginWeb,
		},
	})
	return msg, nil
}

// ListMessages returns the full conversation in log order.
func (s *TicketService) ListMessages(ctx context.Context, ticketID string) ([]domain.Message, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	messages, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	return messages, nil
}

// UpdateStatus transitions a ticket to the given status. Setting the current
// status again is a no-op that still succeeds.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(status) {
		return nil, errorutil.NewValidationError("invalid status", map[string]any{"status": status})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	if ticket.Status == status {
		return ticket, nil
	}

	old := ticket.Status
	ticket.Status = status
	if status == domain.TicketStatusClosed {
		now := time.Now().UTC()
		ticket.ClosedAt = &now
	} else {
		ticket.ClosedAt = nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: old,
			NewStatus: status,
		},
	})

	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticketID),
		zap.String("old_status", string(old)),
		zap.String("new_status", string(status)))
	return ticket, nil
}

// Close marks a ticket CLOSED. Closing a closed ticket succeeds without side
// effects.
func (s *TicketService) Close(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.UpdateStatus(ctx, ticketID, domain.TicketStatusClosed)
}

// Archive retires the ticket's external room without touching the canonical
// status. An archived ticket keeps accepting web-side appends.
func (s *TicketService) Archive(ctx context.Context, ticketID string) error {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return errorutil.ToDomainError(err)
	}
	return s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketArchived,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
	})
}

// Delete finalizes a ticket: the conversation is rendered to a transcript,
// the external room is torn down, and the canonical records are retained.
// Repeating a delete regenerates an identical transcript, which the store
// deduplicates, so the operation converges.
func (s *TicketService) Delete(ctx context.Context, ticketID string) (*transcript.Document, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	messages, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	doc := transcript.Generate(ticket, messages)
	stored, err := s.transcripts.Save(ctx, doc)
	if err != nil {
		return nil, err
	}
	if !stored {
		s.logger.Info("transcript already stored for this conversation",
			zap.String("ticket_id", ticketID),
			zap.String("hash", doc.Hash))
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketDeleted,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
		Payload: events.TicketDeletedPayload{
			TranscriptURL: "/tickets/transcripts/" + ticketID,
		},
	})

	s.logger.Info("ticket deleted",
		zap.String("ticket_id", ticketID),
		zap.String("display_code", ticket.DisplayCode))
	return doc, nil
}

// Purge permanently removes a ticket and its conversation. The stored
// transcript survives as the only remaining record.
func (s *TicketService) Purge(ctx context.Context, ticketID string) error {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if derr := errorutil.ToDomainError(err); derr.Code == "NOT_FOUND" {
			return nil
		}
		return errorutil.ToDomainError(err)
	}
	if err := s.messages.DeleteByTicket(ctx, ticketID); err != nil {
		return errorutil.ToDomainError(err)
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return errorutil.ToDomainError(err)
	}
	s.logger.Info("ticket purged", zap.String("ticket_id", ticketID))
	return nil
}

// GetTranscript returns the stored transcript for a ticket. Available even
// after a purge.
func (s *TicketService) GetTranscript(ctx context.Context, ticketID string) (*transcript.Document, error) {
	return s.transcripts.Get(ctx, ticketID)
}

// generateDisplayCode produces the short human-facing ticket code.
func generateDisplayCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TCK-" + strings.ToUpper(id[:8])
}
