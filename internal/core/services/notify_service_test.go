package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyServiceRoutesEvents(t *testing.T) {
	hub := NewNotifyService()
	patron := &SSEClient{ID: "p", ClientID: 7, Channel: make(chan SSEEvent, 4)}
	desk := &SSEClient{ID: "d", BookID: 3, Channel: make(chan SSEEvent, 4)}
	hub.Register(patron)
	hub.Register(desk)
	assert.Equal(t, 2, hub.Count())

	hub.Publish(
		SSEEvent{Event: EventHoldReady, ClientID: 7},
		SSEEvent{Event: EventQueueUpdate, BookID: 3},
		SSEEvent{Event: EventFineCreated, ClientID: 8},
	)

	require.Len(t, patron.Channel, 1)
	assert.Equal(t, EventHoldReady, (<-patron.Channel).Event)
	require.Len(t, desk.Channel, 1)
	assert.Equal(t, EventQueueUpdate, (<-desk.Channel).Event)

	hub.Unregister("p")
	_, open := <-patron.Channel
	assert.False(t, open)
	assert.Equal(t, 1, hub.Count())

	hub.Unregister("missing")
	assert.Equal(t, 1, hub.Count())
}

func TestNotifyServiceSkipsFullChannels(t *testing.T) {
	hub := NewNotifyService()
	slow := &SSEClient{ID: "s", ClientID: 1, Channel: make(chan SSEEvent, 1)}
	hub.Register(slow)

	hub.Publish(SSEEvent{Event: "a", ClientID: 1}, SSEEvent{Event: "b", ClientID: 1})

	require.Len(t, slow.Channel, 1)
	assert.Equal(t, "a", (<-slow.Channel).Event)
}
