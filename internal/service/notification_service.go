package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bridge/internal/config"
	"github.com/spec-kit/support-bridge/internal/domain"
	"github.com/spec-kit/support-bridge/internal/events"
)

// Notifier delivers requester-facing notifications. The log-backed
// implementation stands in for the mail and webhook senders; the interface
// is the seam a real delivery channel plugs into.
type Notifier interface {
	NotifyNewTicket(ctx context.Context, ticketID, displayCode string)
	NotifyReply(ctx context.Context, ticketID, authorName, preview string)
	NotifyStatusChange(ctx context.Context, ticketID, oldStatus, newStatus string)
	NotifyTranscript(ctx context.Context, ticketID, transcriptURL string)
}

// NotificationService turns lifecycle events into requester notifications.
type NotificationService struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewNotificationService constructs the service and subscribes it to the
// dispatcher.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger) *NotificationService {
	s := &NotificationService{notifier: notifier, logger: logger}
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventReplyReceived, s.onReplyReceived)
	dispatcher.Subscribe(events.EventMessageAppended, s.onMessageAppended)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.onStatusChanged)
	dispatcher.Subscribe(events.EventTicketDeleted, s.onTicketDeleted)
	return s
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	s.notifier.NotifyNewTicket(ctx, event.TicketID, payload.DisplayCode)
	return nil
}

func (s *NotificationService) onReplyReceived(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReplyReceivedPayload)
	if !ok || payload.Message == nil {
		return nil
	}
	s.notifier.NotifyReply(ctx, event.TicketID, payload.AuthorName, replyPreview(payload.Message.Content))
	return nil
}

// onMessageAppended covers agent replies entered through the web API.
// Bridge-ingested replies arrive as reply_received instead, so each agent
// message notifies exactly once.
func (s *NotificationService) onMessageAppended(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageAppendedPayload)
	if !ok || payload.Message == nil {
		return nil
	}
	if payload.Origin != events.OriginWeb || payload.Message.SenderRole != domain.SenderRoleAgent {
		return nil
	}
	s.notifier.NotifyReply(ctx, event.TicketID, "support agent", replyPreview(payload.Message.Content))
	return nil
}

// replyPreview truncates on a rune boundary so multi-byte content never
// produces a broken sequence.
func replyPreview(content string) string {
	const maxRunes = 120
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	return string(runes[:maxRunes])
}

func (s *NotificationService) onStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	s.notifier.NotifyStatusChange(ctx, event.TicketID, string(payload.OldStatus), string(payload.NewStatus))
	return nil
}

func (s *NotificationService) onTicketDeleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketDeletedPayload)
	if !ok {
		return nil
	}
	s.notifier.NotifyTranscript(ctx, event.TicketID, payload.TranscriptURL)
	return nil
}

// logNotifier records every notification at info level. EmailFrom and
// WebhookURL ride along so operators can see what a live channel would use.
type logNotifier struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewLogNotifier creates the log-backed notifier.
func NewLogNotifier(cfg config.NotificationConfig, logger *zap.Logger) Notifier {
	return &logNotifier{cfg: cfg, logger: logger}
}

func (n *logNotifier) NotifyNewTicket(_ context.Context, ticketID, displayCode string) {
	n.logger.Info("notify: ticket received",
		zap.String("ticket_id", ticketID),
		zap.String("display_code", displayCode),
		zap.String("email_from", n.cfg.EmailFrom))
}

func (n *logNotifier) NotifyReply(_ context.Context, ticketID, authorName, preview string) {
	n.logger.Info("notify: new reply",
		zap.String("ticket_id", ticketID),
		zap.String("author", authorName),
		zap.String("preview", preview))
}

func (n *logNotifier) NotifyStatusChange(_ context.Context, ticketID, oldStatus, newStatus string) {
	n.logger.Info("notify: status changed",
		zap.String("ticket_id", ticketID),
		zap.String("old_status", oldStatus),
		zap.String("new_status", newStatus))
}

func (n *logNotifier) NotifyTranscript(_ context.Context, ticketID, transcriptURL string) {
	n.logger.Info("notify: transcript available",
		zap.String("ticket_id", ticketID),
		zap.String("transcript_url", transcriptURL),
		zap.String("webhook_url", n.cfg.WebhookURL))
}
