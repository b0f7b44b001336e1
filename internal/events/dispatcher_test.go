package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversSynchronously(t *testing.T) {
	d := NewInMemoryDispatcher()

	delivered := false
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		delivered = true
		assert.Equal(t, "t-1", event.TicketID)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t-1"}))
	assert.True(t, delivered, "handler must run before Publish returns")
}

func TestPublishReachesAllHandlersDespiteErrors(t *testing.T) {
	d := NewInMemoryDispatcher()

	var order []int
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		order = append(order, 1)
		return errors.New("first handler failed")
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		order = append(order, 2)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketDeleted}))
	assert.Equal(t, []int{1, 2}, order)
}

func TestPublishIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewInMemoryDispatcher()
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		t.Fatal("handler for a different type must not run")
		return nil
	})
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventReplyReceived}))
}
