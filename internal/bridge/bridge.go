package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bridge/internal/config"
	"github.com/spec-kit/support-bridge/internal/domain"
	"github.com/spec-kit/support-bridge/internal/events"
	"github.com/spec-kit/support-bridge/internal/observability"
	"github.com/spec-kit/support-bridge/internal/platform"
	"github.com/spec-kit/support-bridge/internal/repository"
)

// RoomSummary is the ticket data carried into a room's introductory message.
type RoomSummary struct {
	DisplayCode string
	Subject     string
	Category    string
	Priority    domain.TicketPriority
	GuestEmail  string
}

// Bridge owns the ticket to external-room mapping and both sync directions.
// Outbound failures are swallowed: ticket operations must not depend on
// platform availability. Inbound failures are logged and counted because a
// silently lost staff reply is the worse failure mode.
type Bridge struct {
	platform   platform.ChatPlatform
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	mappings   repository.RoomMappingRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.BridgeConfig

	parentRoomID string
	auditRoomID  string

	names    *ttlcache.Cache[string, string]
	throttle *throttle

	mu         sync.Mutex
	tearingMap map[string]struct{}
}

// Dependencies bundles collaborators for the bridge.
type Dependencies struct {
	Platform     platform.ChatPlatform
	TicketRepo   repository.TicketRepository
	MessageRepo  repository.MessageRepository
	MappingRepo  repository.RoomMappingRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Config       config.BridgeConfig
	ParentRoomID string
	AuditRoomID  string
}

// New constructs the bridge.
func New(deps Dependencies) *Bridge {
	names := ttlcache.New(ttlcache.WithTTL[string, string](deps.Config.NameCacheTTL()))
	go names.Start()
	return &Bridge{
		platform:     deps.Platform,
		tickets:      deps.TicketRepo,
		messages:     deps.MessageRepo,
		mappings:     deps.MappingRepo,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		cfg:          deps.Config,
		parentRoomID: deps.ParentRoomID,
		auditRoomID:  deps.AuditRoomID,
		names:        names,
		throttle:     newThrottle(deps.Config.MinSendInterval()),
		tearingMap:   make(map[string]struct{}),
	}
}

// RegisterHandlers subscribes the bridge to lifecycle events. Room creation
// runs synchronously inside the publishing call so the mapping exists before
// control returns to the caller; everything else is dispatched without being
// awaited.
func (b *Bridge) RegisterHandlers() {
	b.dispatcher.Subscribe(events.EventTicketCreated, b.handleTicketCreated)
	b.dispatcher.Subscribe(events.EventMessageAppended, b.handleMessageAppended)
	b.dispatcher.Subscribe(events.EventTicketStatusChanged, b.handleStatusChanged)
	b.dispatcher.Subscribe(events.EventTicketArchived, b.handleTicketArchived)
	b.dispatcher.Subscribe(events.EventTicketDeleted, b.handleTicketDeleted)
}

// EnsureRoom returns the room mapped to the ticket, creating room and mapping
// when absent. Two concurrent callers never produce two mappings: the loser
// of the uniqueness-constrained insert re-reads the winner's row.
func (b *Bridge) EnsureRoom(ctx context.Context, ticketID string, summary RoomSummary) (string, error) {
	existing, err := b.mappings.GetByTicket(ctx, ticketID)
	if err == nil {
		return existing.RoomID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	roomID, err := b.platform.CreateRoom(ctx, roomName(summary.DisplayCode))
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}

	mapping := &domain.RoomMapping{
		TicketID:  ticketID,
		RoomID:    roomID,
		ParentID:  b.parentRoomID,
		RoomState: domain.RoomStateActive,
	}
	if err := b.mappings.Create(ctx, mapping); err != nil {
		if errors.Is(err, repository.ErrDuplicateMapping) {
			winner, readErr := b.mappings.GetByTicket(ctx, ticketID)
			if readErr != nil {
				return "", readErr
			}
			// the room we just created lost the race and has no mapping
			if archiveErr := b.platform.ArchiveRoom(ctx, roomID); archiveErr != nil {
				b.logger.Warn("failed to discard orphan room",
					zap.String("room_id", roomID), zap.Error(archiveErr))
			}
			return winner.RoomID, nil
		}
		return "", err
	}

	b.postBestEffort(ctx, roomID, introMessage(ticketID, summary))
	return roomID, nil
}

// SyncOutbound mirrors a committed log entry into the mapped room. The
// external copy is a mirror, not a participant in the write path: failures
// are logged and never roll anything back.
func (b *Bridge) SyncOutbound(ctx context.Context, ticketID string, msg *domain.Message) {
	mapping, err := b.mappings.GetByTicket(ctx, ticketID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			b.logger.Warn("outbound sync: mapping lookup failed",
				zap.String("ticket_id", ticketID), zap.Error(err))
			b.metrics.RecordSyncFailure("outbound")
		}
		return
	}
	if err := b.throttle.Wait(ctx); err != nil {
		return
	}
	if err := b.platform.PostMessage(ctx, mapping.RoomID, mirrorMessage(msg)); err != nil {
		b.logger.Warn("outbound sync failed",
			zap.String("ticket_id", ticketID),
			zap.String("room_id", mapping.RoomID),
			zap.Error(err))
		b.metrics.RecordSyncFailure("outbound")
	}
}

// SyncInbound ingests a message-posted event from the platform. Events for
// unmapped rooms are silent no-ops; events authored by an automated identity
// or by the bridge's own user are rejected so an outbound mirror is never
// re-ingested.
func (b *Bridge) SyncInbound(ctx context.Context, inbound platform.InboundMessage) error {
	mapping, err := b.mappings.GetByRoom(ctx, inbound.RoomID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		b.metrics.RecordSyncFailure("inbound")
		return err
	}
	if inbound.Automated || inbound.AuthorID == b.platform.SelfID() {
		return nil
	}
	if strings.TrimSpace(inbound.Text) == "" {
		return nil
	}

	msg := &domain.Message{
		TicketID:   mapping.TicketID,
		SenderRole: domain.SenderRoleAgent,
		Content:    inbound.Text,
	}
	if err := b.messages.Append(ctx, msg); err != nil {
		b.logger.Error("inbound sync: append failed",
			zap.String("ticket_id", mapping.TicketID),
			zap.String("room_id", inbound.RoomID),
			zap.Error(err))
		b.metrics.RecordSyncFailure("inbound")
		return err
	}

	return b.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventReplyReceived,
		TicketID:  mapping.TicketID,
		Timestamp: time.Now().UTC(),
		Payload: events.ReplyReceivedPayload{
			Message:    msg,
			AuthorName: b.authorName(ctx, inbound.AuthorID),
		},
	})
}

// ArchiveRoom relabels the mapped room and flips the mapping's room state.
// The ticket's canonical status is deliberately untouched. Idempotent; a
// ticket without a room is a no-op.
func (b *Bridge) ArchiveRoom(ctx context.Context, ticketID string) error {
	mapping, err := b.mappings.GetByTicket(ctx, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if mapping.RoomState == domain.RoomStateArchived {
		return nil
	}

	ticket, err := b.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	archived := b.cfg.ArchivePrefix + roomName(ticket.DisplayCode)
	if err := b.platform.RenameRoom(ctx, mapping.RoomID, archived); err != nil {
		b.logger.Warn("archive: rename failed",
			zap.String("room_id", mapping.RoomID), zap.Error(err))
	}
	return b.mappings.UpdateState(ctx, ticketID, domain.RoomStateArchived)
}

// TeardownRoom removes the mapped room after the grace delay so in-flight
// sends can complete, then drops the mapping. Safe to call repeatedly and
// for tickets without a room.
func (b *Bridge) TeardownRoom(ctx context.Context, ticketID, transcriptURL string) error {
	b.mu.Lock()
	if _, inFlight := b.tearingMap[ticketID]; inFlight {
		b.mu.Unlock()
		return nil
	}
	b.tearingMap[ticketID] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.tearingMap, ticketID)
		b.mu.Unlock()
	}()

	mapping, err := b.mappings.GetByTicket(ctx, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	b.postBestEffort(ctx, mapping.RoomID, platform.Outbound{
		Title: "🗑️ Ticket Deleted",
		Body:  "This room will be removed shortly. A transcript has been generated.",
	})
	if b.auditRoomID != "" {
		audit := platform.Outbound{
			Title: "📑 Ticket Deleted",
			Fields: []platform.Field{
				{Label: "Ticket", Value: ticketID},
			},
		}
		if transcriptURL != "" {
			audit.Fields = append(audit.Fields, platform.Field{Label: "Transcript", Value: transcriptURL})
		}
		b.postBestEffort(ctx, b.auditRoomID, audit)
	}

	if grace := b.cfg.TeardownGrace(); grace > 0 {
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := b.platform.ArchiveRoom(ctx, mapping.RoomID); err != nil {
		b.logger.Warn("teardown: room removal failed",
			zap.String("room_id", mapping.RoomID), zap.Error(err))
	}
	return b.mappings.Delete(ctx, ticketID)
}

// HandleInbound adapts SyncInbound to the listener's sink signature.
func (b *Bridge) HandleInbound(ctx context.Context, inbound platform.InboundMessage) {
	if err := b.SyncInbound(ctx, inbound); err != nil {
		b.logger.Error("inbound sync failed", zap.String("room_id", inbound.RoomID), zap.Error(err))
	}
}

// HandleCommand routes a control-button press. Claim is handled here; the
// lifecycle-affecting actions are published for the controller so the bridge
// never calls it directly.
func (b *Bridge) HandleCommand(ctx context.Context, cmd platform.RoomCommand) {
	switch cmd.ActionID {
	case platform.ActionClaimTicket:
		b.postBestEffort(ctx, cmd.RoomID, platform.Outbound{
			Body: fmt.Sprintf("👮 Ticket claimed by *%s*. A support agent is now assisting you.",
				b.authorName(ctx, cmd.ActorID)),
		})
	case platform.ActionCloseTicket, platform.ActionDeleteTicket, platform.ActionCreateTicket:
		action := events.RoomActionCreate
		switch cmd.ActionID {
		case platform.ActionCloseTicket:
			action = events.RoomActionClose
		case platform.ActionDeleteTicket:
			action = events.RoomActionDelete
		}
		_ = b.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRoomCommand,
			TicketID:  cmd.Value,
			Timestamp: time.Now().UTC(),
			Payload: events.RoomCommandPayload{
				Action:  action,
				RoomID:  cmd.RoomID,
				ActorID: cmd.ActorID,
			},
		})
	default:
		b.logger.Debug("unhandled room command", zap.String("action_id", cmd.ActionID))
	}
}

func (b *Bridge) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	summary := RoomSummary{
		DisplayCode: payload.DisplayCode,
		Subject:     payload.Subject,
		Category:    payload.Category,
		Priority:    payload.Priority,
	}
	if payload.GuestEmail != nil {
		summary.GuestEmail = *payload.GuestEmail
	}
	if _, err := b.EnsureRoom(ctx, event.TicketID, summary); err != nil {
		// platform outage never blocks ticket creation
		b.logger.Warn("room creation failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
		b.metrics.RecordSyncFailure("outbound")
		return nil
	}
	if payload.InitialMessage != nil {
		go b.mirrorDetached(event.TicketID, payload.InitialMessage)
	}
	return nil
}

func (b *Bridge) handleMessageAppended(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageAppendedPayload)
	if !ok || payload.Origin != events.OriginWeb || payload.Message == nil {
		return nil
	}
	go b.mirrorDetached(event.TicketID, payload.Message)
	return nil
}

func (b *Bridge) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	go func() {
		dctx, cancel := b.detachedContext()
		defer cancel()
		mapping, err := b.mappings.GetByTicket(dctx, event.TicketID)
		if err != nil {
			return
		}
		b.postBestEffort(dctx, mapping.RoomID, platform.Outbound{
			Title: "📊 Status Updated",
			Body:  fmt.Sprintf("Ticket status changed to *%s*", payload.NewStatus),
		})
		if payload.NewStatus == domain.TicketStatusClosed {
			if err := b.platform.ArchiveRoom(dctx, mapping.RoomID); err != nil {
				b.logger.Warn("close: room archive failed",
					zap.String("room_id", mapping.RoomID), zap.Error(err))
			}
		}
	}()
	return nil
}

func (b *Bridge) handleTicketArchived(ctx context.Context, event events.Event) error {
	if err := b.ArchiveRoom(ctx, event.TicketID); err != nil {
		b.logger.Warn("archive failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
	return nil
}

func (b *Bridge) handleTicketDeleted(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketDeletedPayload)
	go func() {
		dctx, cancel := b.detachedContext()
		defer cancel()
		if err := b.TeardownRoom(dctx, event.TicketID, payload.TranscriptURL); err != nil {
			b.logger.Warn("teardown failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
		}
	}()
	return nil
}

func (b *Bridge) mirrorDetached(ticketID string, msg *domain.Message) {
	ctx, cancel := b.detachedContext()
	defer cancel()
	b.SyncOutbound(ctx, ticketID, msg)
}

func (b *Bridge) detachedContext() (context.Context, context.CancelFunc) {
	// fire-and-forget work outlives the originating request
	timeout := b.cfg.OutboundTimeout() + b.cfg.TeardownGrace()
	return context.WithTimeout(context.Background(), timeout)
}

func (b *Bridge) postBestEffort(ctx context.Context, roomID string, msg platform.Outbound) {
	if err := b.throttle.Wait(ctx); err != nil {
		return
	}
	if err := b.platform.PostMessage(ctx, roomID, msg); err != nil {
		b.logger.Warn("platform post failed", zap.String("room_id", roomID), zap.Error(err))
		b.metrics.RecordSyncFailure("outbound")
	}
}

func (b *Bridge) authorName(ctx context.Context, authorID string) string {
	if item := b.names.Get(authorID); item != nil {
		return item.Value()
	}
	name, err := b.platform.AuthorName(ctx, authorID)
	if err != nil || name == "" {
		return authorID
	}
	b.names.Set(authorID, name, ttlcache.DefaultTTL)
	return name
}

func introMessage(ticketID string, summary RoomSummary) platform.Outbound {
	email := summary.GuestEmail
	if email == "" {
		email = "Not provided"
	}
	return platform.Outbound{
		Title: fmt.Sprintf("🎫 New Support Ticket %s", summary.DisplayCode),
		Body:  summary.Subject,
		Fields: []platform.Field{
			{Label: "📧 Email", Value: email},
			{Label: "📁 Category", Value: summary.Category},
			{Label: "⚡ Priority", Value: string(summary.Priority)},
			{Label: "📊 Status", Value: string(domain.TicketStatusOpen)},
		},
		Buttons: []platform.Button{
			{ActionID: platform.ActionClaimTicket, Value: ticketID, Label: "✋ Claim"},
			{ActionID: platform.ActionCloseTicket, Value: ticketID, Label: "🔒 Close"},
			{ActionID: platform.ActionDeleteTicket, Value: ticketID, Label: "🗑️ Delete", Danger: true},
		},
	}
}

func mirrorMessage(msg *domain.Message) platform.Outbound {
	sender := "👤 Requester"
	if msg.SenderRole == domain.SenderRoleAgent {
		sender = "👨‍💼 Agent"
	}
	body := msg.Content
	for _, att := range msg.Attachments {
		body += fmt.Sprintf("\n📎 %s", att)
	}
	return platform.Outbound{
		Body: body,
		Fields: []platform.Field{
			{Label: "From", Value: sender + " (via website)"},
		},
	}
}

func roomName(displayCode string) string {
	return "ticket-" + strings.ToLower(displayCode)
}
