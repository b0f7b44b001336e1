package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-bridge/pkg/errorutil"
)

// Store persists rendered transcripts. Save is idempotent on conversation
// content: re-saving a transcript whose hash is already recorded for the
// ticket is a no-op.
type Store interface {
	Save(ctx context.Context, doc *Document) (stored bool, err error)
	Get(ctx context.Context, ticketID string) (*Document, error)
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed transcript store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func latestKey(ticketID string) string {
	return "transcript:" + ticketID
}

func dedupKey(ticketID, hash string) string {
	return fmt.Sprintf("transcript:%s:%s", ticketID, hash)
}

// Save writes the document under the ticket's latest-transcript key. The
// per-hash marker is claimed with SETNX; a second save of identical content
// loses the claim and reports stored=false.
func (s *redisStore) Save(ctx context.Context, doc *Document) (bool, error) {
	claimed, err := s.client.SetNX(ctx, dedupKey(doc.TicketID, doc.Hash), 1, 0).Result()
	if err != nil {
		return false, errorutil.NewUnavailable("transcript store", err)
	}
	if !claimed {
		return false, nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return false, errorutil.NewInternalError(err)
	}
	if err := s.client.Set(ctx, latestKey(doc.TicketID), raw, 0).Err(); err != nil {
		return false, errorutil.NewUnavailable("transcript store", err)
	}
	return true, nil
}

// Get returns the latest transcript for the ticket.
func (s *redisStore) Get(ctx context.Context, ticketID string) (*Document, error) {
	raw, err := s.client.Get(ctx, latestKey(ticketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errorutil.NewNotFound("transcript", map[string]any{"ticket_id": ticketID})
	}
	if err != nil {
		return nil, errorutil.NewUnavailable("transcript store", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return &doc, nil
}
