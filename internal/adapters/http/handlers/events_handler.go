package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// EventsHandler streams circulation events to patrons and desk screens
type EventsHandler struct {
	hub       *services.NotifyService
	heartbeat time.Duration
}

// NewEventsHandler creates a new SSE handler
func NewEventsHandler(hub *services.NotifyService) *EventsHandler {
	return &EventsHandler{hub: hub, heartbeat: 30 * time.Second}
}

// ============================================================
// GET /api/v1/events/clients/:id  (patron stream, staff JWT)
// GET /api/v1/events/books/:id    (desk screen stream)
// ============================================================

// ClientEvents streams hold and fine notifications for one patron
// @Summary Patron event stream
// @Tags Events
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path int true "Client ID"
// @Router /events/clients/{id} [get]
func (h *EventsHandler) ClientEvents(c *fiber.Ctx) error {
	clientID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid client ID")
	}
	return h.stream(c, &services.SSEClient{ClientID: clientID})
}

// BookEvents streams queue changes for one title
// @Summary Book queue event stream
// @Tags Events
// @Produce text/event-stream
// @Param id path int true "Book ID"
// @Router /events/books/{id} [get]
func (h *EventsHandler) BookEvents(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	return h.stream(c, &services.SSEClient{BookID: bookID})
}

func (h *EventsHandler) stream(c *fiber.Ctx, client *services.SSEClient) error {
	client.ID = uuid.NewString()
	client.Channel = make(chan services.SSEEvent, 50)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		h.hub.Register(client)
		defer h.hub.Unregister(client.ID)

		fmt.Fprintf(w, "event: connected\ndata: {\"stream_id\":%q}\n\n", client.ID)
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(h.heartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				if err := writeSSEEvent(w, event); err != nil {
					log.Printf("📡 SSE stream %s closed: %v", client.ID, err)
					return
				}
			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE stream %s disconnected", client.ID)
					return
				}
			}
		}
	})

	return nil
}

// writeSSEEvent writes one event frame and flushes it
func writeSSEEvent(w *bufio.Writer, event services.SSEEvent) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
	return w.Flush()
}
