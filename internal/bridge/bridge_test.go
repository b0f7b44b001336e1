package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bridge/internal/config"
	"github.com/spec-kit/support-bridge/internal/domain"
	"github.com/spec-kit/support-bridge/internal/events"
	"github.com/spec-kit/support-bridge/internal/observability"
	"github.com/spec-kit/support-bridge/internal/platform"
	"github.com/spec-kit/support-bridge/internal/platform/mock"
	"github.com/spec-kit/support-bridge/internal/repository"
)

type fakeMappingRepo struct {
	mu            sync.Mutex
	byTicket      map[string]*domain.RoomMapping
	byRoom        map[string]*domain.RoomMapping
	missOnce      bool
	duplicateOnce bool
	creates       int
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{
		byTicket: map[string]*domain.RoomMapping{},
		byRoom:   map[string]*domain.RoomMapping{},
	}
}

func (r *fakeMappingRepo) put(mapping *domain.RoomMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *mapping
	r.byTicket[mapping.TicketID] = &copied
	r.byRoom[mapping.RoomID] = &copied
}

func (r *fakeMappingRepo) Create(_ context.Context, mapping *domain.RoomMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.duplicateOnce {
		r.duplicateOnce = false
		return repository.ErrDuplicateMapping
	}
	if _, ok := r.byTicket[mapping.TicketID]; ok {
		return repository.ErrDuplicateMapping
	}
	mapping.CreatedAt = time.Now().UTC()
	copied := *mapping
	r.byTicket[mapping.TicketID] = &copied
	r.byRoom[mapping.RoomID] = &copied
	return nil
}

func (r *fakeMappingRepo) GetByTicket(_ context.Context, ticketID string) (*domain.RoomMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missOnce {
		// stages a lookup that races a concurrent writer's commit
		r.missOnce = false
		return nil, pgx.ErrNoRows
	}
	mapping, ok := r.byTicket[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *mapping
	return &copied, nil
}

func (r *fakeMappingRepo) GetByRoom(_ context.Context, roomID string) (*domain.RoomMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mapping, ok := r.byRoom[roomID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *mapping
	return &copied, nil
}

func (r *fakeMappingRepo) UpdateState(_ context.Context, ticketID string, state domain.RoomState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mapping, ok := r.byTicket[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	mapping.RoomState = state
	r.byRoom[mapping.RoomID] = mapping
	return nil
}

func (r *fakeMappingRepo) Delete(_ context.Context, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mapping, ok := r.byTicket[ticketID]; ok {
		delete(r.byRoom, mapping.RoomID)
		delete(r.byTicket, ticketID)
	}
	return nil
}

type fakeTicketReader struct {
	mu   sync.Mutex
	byID map[string]*domain.Ticket
}

func newFakeTicketReader(tickets ...*domain.Ticket) *fakeTicketReader {
	r := &fakeTicketReader{byID: map[string]*domain.Ticket{}}
	for _, t := range tickets {
		r.byID[t.ID] = t
	}
	return r
}

func (r *fakeTicketReader) Create(_ context.Context, _ *domain.Ticket) error { return nil }
func (r *fakeTicketReader) Update(_ context.Context, _ *domain.Ticket) error { return nil }

func (r *fakeTicketReader) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket, nil
}

func (r *fakeTicketReader) GetByDisplayCode(_ context.Context, _ string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketReader) List(_ context.Context, _ *string, _, _ int) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *fakeTicketReader) Delete(_ context.Context, _ string) error { return nil }

type fakeMessageLog struct {
	mu       sync.Mutex
	appended []domain.Message
	nextSeq  int64
}

func (r *fakeMessageLog) Append(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	msg.ID = uuid.NewString()
	msg.Seq = r.nextSeq
	msg.CreatedAt = time.Now().UTC()
	r.appended = append(r.appended, *msg)
	return nil
}

func (r *fakeMessageLog) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, msg := range r.appended {
		if msg.TicketID == ticketID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *fakeMessageLog) DeleteByTicket(_ context.Context, _ string) error { return nil }

type bridgeFixture struct {
	bridge     *Bridge
	chat       *mock.MockChatPlatform
	mappings   *fakeMappingRepo
	messages   *fakeMessageLog
	tickets    *fakeTicketReader
	dispatcher events.Dispatcher
}

func newBridgeFixture(t *testing.T, tickets ...*domain.Ticket) *bridgeFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &bridgeFixture{
		chat:       mock.NewMockChatPlatform(ctrl),
		mappings:   newFakeMappingRepo(),
		messages:   &fakeMessageLog{},
		tickets:    newFakeTicketReader(tickets...),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	f.bridge = New(Dependencies{
		Platform:    f.chat,
		TicketRepo:  f.tickets,
		MessageRepo: f.messages,
		MappingRepo: f.mappings,
		Dispatcher:  f.dispatcher,
		Logger:      zap.NewNop(),
		Metrics:     observability.NewMetrics(),
		Config: config.BridgeConfig{
			ArchivePrefix:          "closed-",
			TeardownGraceSeconds:   0,
			MinSendIntervalMillis:  0,
			NameCacheTTLMinutes:    1,
			OutboundTimeoutSeconds: 1,
		},
		AuditRoomID: "",
	})
	return f
}

func TestEnsureRoomCreatesMappingAndIntro(t *testing.T) {
	f := newBridgeFixture(t)
	ticketID := uuid.NewString()

	f.chat.EXPECT().CreateRoom(gomock.Any(), "ticket-tck-1a2b3c4d").Return("C100", nil)
	f.chat.EXPECT().PostMessage(gomock.Any(), "C100", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, msg platform.Outbound) error {
			assert.Contains(t, msg.Title, "TCK-1A2B3C4D")
			require.Len(t, msg.Buttons, 3)
			for _, button := range msg.Buttons {
				assert.Equal(t, ticketID, button.Value)
			}
			return nil
		})

	roomID, err := f.bridge.EnsureRoom(context.Background(), ticketID, RoomSummary{
		DisplayCode: "TCK-1A2B3C4D",
		Subject:     "Intro",
		Category:    "general",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "C100", roomID)

	mapping, err := f.mappings.GetByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Equal(t, "C100", mapping.RoomID)
	assert.Equal(t, domain.RoomStateActive, mapping.RoomState)
}

func TestEnsureRoomReturnsExistingMapping(t *testing.T) {
	f := newBridgeFixture(t)
	ticketID := uuid.NewString()
	f.mappings.put(&domain.RoomMapping{TicketID: ticketID, RoomID: "C1", RoomState: domain.RoomStateActive})

	roomID, err := f.bridge.EnsureRoom(context.Background(), ticketID, RoomSummary{DisplayCode: "TCK-X"})
	require.NoError(t, err)
	assert.Equal(t, "C1", roomID)
}

func TestEnsureRoomLosingRacerAdoptsWinner(t *testing.T) {
	f := newBridgeFixture(t)
	ticketID := uuid.NewString()

	// the first lookup misses, the insert loses, and the winner's row
	// appears on the post-conflict re-read
	f.mappings.put(&domain.RoomMapping{TicketID: ticketID, RoomID: "C_WIN", RoomState: domain.RoomStateActive})
	f.mappings.missOnce = true
	f.mappings.duplicateOnce = true

	f.chat.EXPECT().CreateRoom(gomock.Any(), gomock.Any()).Return("C_ORPHAN", nil)
	f.chat.EXPECT().ArchiveRoom(gomock.Any(), "C_ORPHAN").Return(nil)

	roomID, err := f.bridge.EnsureRoom(context.Background(), ticketID, RoomSummary{DisplayCode: "TCK-RACE"})
	require.NoError(t, err)
	assert.Equal(t, "C_WIN", roomID)

	mapping, err := f.mappings.GetByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Equal(t, "C_WIN", mapping.RoomID)
	assert.Equal(t, 1, f.mappings.creates)
}

func TestSyncInboundIgnoresUnmappedRoom(t *testing.T) {
	f := newBridgeFixture(t)

	err := f.bridge.SyncInbound(context.Background(), platform.InboundMessage{
		RoomID:   "C_UNKNOWN",
		AuthorID: "U1",
		Text:     "hello",
	})
	require.NoError(t, err)
	assert.Empty(t, f.messages.appended)
}

func TestSyncInboundRejectsAutomatedAndSelfAuthors(t *testing.T) {
	f := newBridgeFixture(t)
	ticketID := uuid.NewString()
	f.mappings.put(&domain.RoomMapping{TicketID: ticketID, RoomID: "C1", RoomState: domain.RoomStateActive})
	f.chat.EXPECT().SelfID().Return("UBOT").AnyTimes()

	require.NoError(t, f.bridge.SyncInbound(context.Background(), platform.InboundMessage{
		RoomID:    "C1",
		AuthorID:  "U1",
		Text:      "automated notice",
		Automated: true,
	}))
	require.NoError(t, f.bridge.SyncInbound(context.Background(), platform.InboundMessage{
		RoomID:   "C1",
		AuthorID: "UBOT",
		Text:     "own mirror",
	}))
	assert.Empty(t, f.messages.appended)
}

func TestSyncInboundAppendsAgentReply(t *testing.T) {
	f := newBridgeFixture(t)
	ticketID := uuid.NewString()
	f.mappings.put(&domain.RoomMapping{TicketID: ticketID, RoomID: "C1", RoomState: domain.RoomStateActive})
	f.chat.EXPECT().SelfID().Return("UBOT").AnyTimes()
	f.chat.EXPECT().AuthorName(gomock.Any(), "U42").Return("Jane Agent", nil)

	recorder := &replyRecorder{}
	f.dispatcher.Subscribe(events.EventReplyReceived, recorder.record)

	err := f.bridge.SyncInbound(context.Background(), platform.InboundMessage{
		RoomID:   "C1",
		AuthorID: "U42",
		Text:     "We are looking into it.",
	})
	require.NoError(t, err)

	require.Len(t, f.messages.appended, 1)
	appended := f.messages.appended[0]
	assert.Equal(t, ticketID, appended.TicketID)
	assert.Equal(t, domain.SenderRoleAgent, appended.SenderRole)
	assert.Equal(t, "We are looking into it.", appended.Content)

	require.Len(t, recorder.events, 1)
	published := recorder.events[0]
	assert.NotEmpty(t, published.ID)
	assert.False(t, published.Timestamp.IsZero())
	payload := published.Payload.(events.ReplyReceivedPayload)
	assert.Equal(t, "Jane Agent", payload.AuthorName)
}

type replyRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *replyRecorder) record(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func TestArchiveRoomRenamesAndFlipsState(t *testing.T) {
	ticket := &domain.Ticket{ID: uuid.NewString(), DisplayCode: "TCK-ARCH1234"}
	f := newBridgeFixture(t, ticket)
	f.mappings.put(&domain.RoomMapping{TicketID: ticket.ID, RoomID: "C1", RoomState: domain.RoomStateActive})

	f.chat.EXPECT().RenameRoom(gomock.Any(), "C1", "closed-ticket-tck-arch1234").Return(nil)

	require.NoError(t, f.bridge.ArchiveRoom(context.Background(), ticket.ID))

	mapping, err := f.mappings.GetByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStateArchived, mapping.RoomState)

	// second archive is a no-op, no further platform calls expected
	require.NoError(t, f.bridge.ArchiveRoom(context.Background(), ticket.ID))
}

func TestArchiveRoomWithoutMappingIsNoOp(t *testing.T) {
	f := newBridgeFixture(t)
	require.NoError(t, f.bridge.ArchiveRoom(context.Background(), uuid.NewString()))
}

func TestTeardownRoomRemovesMapping(t *testing.T) {
	f := newBridgeFixture(t)
	ticketID := uuid.NewString()
	f.mappings.put(&domain.RoomMapping{TicketID: ticketID, RoomID: "C1", RoomState: domain.RoomStateActive})

	f.chat.EXPECT().PostMessage(gomock.Any(), "C1", gomock.Any()).Return(nil)
	f.chat.EXPECT().ArchiveRoom(gomock.Any(), "C1").Return(nil)

	require.NoError(t, f.bridge.TeardownRoom(context.Background(), ticketID, "/tickets/transcripts/"+ticketID))

	_, err := f.mappings.GetByTicket(context.Background(), ticketID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	// repeated teardown finds no mapping and succeeds
	require.NoError(t, f.bridge.TeardownRoom(context.Background(), ticketID, ""))
}

func TestHandleCommandClaimPostsNotice(t *testing.T) {
	f := newBridgeFixture(t)
	f.chat.EXPECT().AuthorName(gomock.Any(), "U9").Return("Sam", nil)
	f.chat.EXPECT().PostMessage(gomock.Any(), "C1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, msg platform.Outbound) error {
			assert.Contains(t, msg.Body, "Sam")
			return nil
		})

	f.bridge.HandleCommand(context.Background(), platform.RoomCommand{
		ActionID: platform.ActionClaimTicket,
		Value:    uuid.NewString(),
		RoomID:   "C1",
		ActorID:  "U9",
	})
}

func TestHandleCommandPublishesLifecycleActions(t *testing.T) {
	f := newBridgeFixture(t)
	ticketID := uuid.NewString()

	var received []events.RoomCommandPayload
	f.dispatcher.Subscribe(events.EventRoomCommand, func(_ context.Context, event events.Event) error {
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Timestamp.IsZero())
		if payload, ok := event.Payload.(events.RoomCommandPayload); ok {
			received = append(received, payload)
		}
		return nil
	})

	f.bridge.HandleCommand(context.Background(), platform.RoomCommand{
		ActionID: platform.ActionCloseTicket, Value: ticketID, RoomID: "C1", ActorID: "U9",
	})
	f.bridge.HandleCommand(context.Background(), platform.RoomCommand{
		ActionID: platform.ActionDeleteTicket, Value: ticketID, RoomID: "C1", ActorID: "U9",
	})

	require.Len(t, received, 2)
	assert.Equal(t, events.RoomActionClose, received[0].Action)
	assert.Equal(t, events.RoomActionDelete, received[1].Action)
	assert.Equal(t, "U9", received[0].ActorID)
}

func TestAuthorNameIsCached(t *testing.T) {
	f := newBridgeFixture(t)
	f.chat.EXPECT().AuthorName(gomock.Any(), "U7").Return("Robin", nil).Times(1)

	assert.Equal(t, "Robin", f.bridge.authorName(context.Background(), "U7"))
	assert.Equal(t, "Robin", f.bridge.authorName(context.Background(), "U7"))
}
