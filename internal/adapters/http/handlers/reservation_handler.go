package handlers

import (
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReservationHandler handles the per-book waiting queues
type ReservationHandler struct {
	queue *services.ReservationQueue
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(queue *services.ReservationQueue) *ReservationHandler {
	return &ReservationHandler{queue: queue}
}

// Enqueue places a client at the back of a book's queue
// @Summary Reserve a book
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateReservationInput true "Client and book"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /reservations [post]
func (h *ReservationHandler) Enqueue(c *fiber.Ctx) error {
	var input services.CreateReservationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	res, err := h.queue.Enqueue(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, "Reservation created successfully", res)
}

// Cancel withdraws a pending reservation
// @Summary Cancel reservation
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	res, err := h.queue.Cancel(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Reservation cancelled", res)
}

// GetReservation returns one reservation
// @Summary Get reservation
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Response
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetReservation(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	res, err := h.queue.GetReservation(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Reservation retrieved successfully", res)
}

// ListPending returns a book's queue in order
// @Summary Book queue
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Router /books/{id}/reservations [get]
func (h *ReservationHandler) ListPending(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	list, err := h.queue.ListPending(c.Context(), bookID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Queue retrieved successfully", list)
}

// ListClientReservations returns a client's reservations
// @Summary Reservations of a client
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Client ID"
// @Success 200 {object} response.Response
// @Router /clients/{id}/reservations [get]
func (h *ReservationHandler) ListClientReservations(c *fiber.Ctx) error {
	clientID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid client ID")
	}

	list, err := h.queue.ListByClient(c.Context(), clientID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Client reservations retrieved successfully", list)
}
