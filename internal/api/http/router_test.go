package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bridge/internal/api/http/handlers"
	"github.com/spec-kit/support-bridge/internal/domain"
	"github.com/spec-kit/support-bridge/internal/events"
	"github.com/spec-kit/support-bridge/internal/observability"
	"github.com/spec-kit/support-bridge/internal/service"
	"github.com/spec-kit/support-bridge/internal/transcript"
	"github.com/spec-kit/support-bridge/pkg/errorutil"
)

type memTicketRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Ticket
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now().UTC()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.byID[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ticket
	r.byID[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *memTicketRepo) GetByDisplayCode(_ context.Context, _ string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) List(_ context.Context, _ *string, _, _ int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.byID {
		out = append(out, *t)
	}
	return out, nil
}

func (r *memTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

type memMessageRepo struct {
	mu      sync.Mutex
	entries []domain.Message
	nextSeq int64
}

func (r *memMessageRepo) Append(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	msg.ID = uuid.NewString()
	msg.Seq = r.nextSeq
	msg.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *msg)
	return nil
}

func (r *memMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.entries {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessageRepo) DeleteByTicket(_ context.Context, _ string) error { return nil }

type memAccountRepo struct{}

func (memAccountRepo) Exists(_ context.Context, _ string) (bool, error) { return false, nil }

type memTranscriptStore struct {
	mu   sync.Mutex
	docs map[string]*transcript.Document
}

func (s *memTranscriptStore) Save(_ context.Context, doc *transcript.Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.TicketID] = doc
	return true, nil
}

func (s *memTranscriptStore) Get(_ context.Context, ticketID string) (*transcript.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[ticketID]
	if !ok {
		return nil, errorutil.NewNotFound("transcript", nil)
	}
	return doc, nil
}

func newTestApp() *fiber.App {
	logger := zap.NewNop()
	svc := service.NewTicketService(
		&memTicketRepo{byID: map[string]*domain.Ticket{}},
		&memMessageRepo{},
		memAccountRepo{},
		events.NewInMemoryDispatcher(),
		&memTranscriptStore{docs: map[string]*transcript.Document{}},
		logger,
	)

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Tickets:     handlers.NewTicketsHandler(svc),
		Transcripts: handlers.NewTranscriptsHandler(svc),
		Health:      handlers.NewHealthHandler("test", "dev", nil, nil),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*stdhttp.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestCreateAndFetchTicket(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, stdhttp.MethodPost, "/tickets", map[string]any{
		"guestEmail":     "user@example.com",
		"subject":        "Help needed",
		"initialMessage": "Something is broken",
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	ticketID := data["id"].(string)
	assert.Equal(t, "OPEN", data["status"])
	assert.Regexp(t, `^TCK-`, data["displayCode"])

	resp, body = doJSON(t, app, stdhttp.MethodPost, "/messages", map[string]any{
		"ticketId": ticketID,
		"content":  "any update?",
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "REQUESTER", body["data"].(map[string]any)["senderRole"])

	resp, body = doJSON(t, app, stdhttp.MethodGet, "/tickets/"+ticketID, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, ticketID, body["data"].(map[string]any)["id"])

	resp, body = doJSON(t, app, stdhttp.MethodGet, "/tickets/"+ticketID+"/messages", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	messages := body["data"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "Something is broken", messages[0].(map[string]any)["content"])
}

func TestErrorEnvelopeShape(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, stdhttp.MethodGet, "/tickets/"+uuid.NewString(), nil)
	require.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	errBody := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errBody["code"])
	assert.NotEmpty(t, errBody["message"])
}

func TestValidationErrorOnCreate(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, stdhttp.MethodPost, "/tickets", map[string]any{
		"guestEmail": "user@example.com",
	})
	require.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])
}

func TestCloseEndpointIsIdempotent(t *testing.T) {
	app := newTestApp()

	_, body := doJSON(t, app, stdhttp.MethodPost, "/tickets", map[string]any{
		"guestEmail": "user@example.com",
		"subject":    "Close me",
	})
	ticketID := body["data"].(map[string]any)["id"].(string)

	for i := 0; i < 2; i++ {
		resp, closed := doJSON(t, app, stdhttp.MethodPost, "/tickets/close", map[string]any{
			"ticketId": ticketID,
		})
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
		assert.Equal(t, "CLOSED", closed["data"].(map[string]any)["status"])
	}
}

func TestDeleteProducesRetrievableTranscript(t *testing.T) {
	app := newTestApp()

	_, body := doJSON(t, app, stdhttp.MethodPost, "/tickets", map[string]any{
		"guestEmail":     "user@example.com",
		"subject":        "Delete me",
		"initialMessage": "bye",
	})
	ticketID := body["data"].(map[string]any)["id"].(string)

	resp, deleted := doJSON(t, app, stdhttp.MethodDelete, "/tickets/"+ticketID, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "/tickets/transcripts/"+ticketID,
		deleted["data"].(map[string]any)["transcriptUrl"])

	resp, fetched := doJSON(t, app, stdhttp.MethodGet, "/tickets/transcripts/"+ticketID, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	doc := fetched["data"].(map[string]any)
	assert.Equal(t, ticketID, doc["ticketId"])
	assert.Contains(t, doc["html"].(string), "Delete me")
}
