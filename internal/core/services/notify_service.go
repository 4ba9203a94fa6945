package services

import (
	"log"
	"sync"
)

// ============================================================
// SSE Hub: patron and desk notifications
// ============================================================

const (
	EventHoldReady   = "hold_ready"
	EventHoldExpired = "hold_expired"
	EventFineCreated = "fine_created"
	EventQueueUpdate = "queue_update"
)

// SSEEvent represents a server-sent event. ClientID targets one patron,
// BookID targets desk screens watching a title.
type SSEEvent struct {
	Event    string      `json:"event"`
	ClientID uint        `json:"client_id,omitempty"`
	BookID   uint        `json:"book_id,omitempty"`
	Data     interface{} `json:"data"`
}

// SSEClient represents a connected SSE stream
type SSEClient struct {
	ID       string
	ClientID uint // patron stream when non-zero
	BookID   uint // desk stream when non-zero
	Channel  chan SSEEvent
}

// NotifyService fans events out to connected streams
type NotifyService struct {
	mu      sync.RWMutex
	clients map[string]*SSEClient
}

// NewNotifyService creates a new SSE hub
func NewNotifyService() *NotifyService {
	return &NotifyService{
		clients: make(map[string]*SSEClient),
	}
}

// Register adds a new SSE client
func (h *NotifyService) Register(client *SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 SSE client registered: %s (client=%d, book=%d) | total=%d",
		client.ID, client.ClientID, client.BookID, len(h.clients))
}

// Unregister removes an SSE client
func (h *NotifyService) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[id]; ok {
		close(client.Channel)
		delete(h.clients, id)
		log.Printf("📡 SSE client unregistered: %s | total=%d", id, len(h.clients))
	}
}

// Count returns the number of open streams
func (h *NotifyService) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish routes each event to its patron and to desk screens for its book
func (h *NotifyService) Publish(events ...SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, event := range events {
		sent := 0
		for _, client := range h.clients {
			match := (event.ClientID != 0 && client.ClientID == event.ClientID) ||
				(event.BookID != 0 && client.BookID == event.BookID)
			if !match {
				continue
			}
			select {
			case client.Channel <- event:
				sent++
			default:
				// Client channel full, skip
				log.Printf("⚠️ SSE channel full for stream %s, skipping", client.ID)
			}
		}
		if sent > 0 {
			log.Printf("📡 SSE [%s] delivered to %d streams", event.Event, sent)
		}
	}
}
