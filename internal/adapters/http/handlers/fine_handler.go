package handlers

import (
	"strings"

	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FineHandler handles fine lookups and exoneration
type FineHandler struct {
	fines *services.FineService
}

// NewFineHandler creates a new fine handler
func NewFineHandler(fines *services.FineService) *FineHandler {
	return &FineHandler{fines: fines}
}

// ListClientFines returns a client's fines and outstanding total
// @Summary Fines of a client
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Client ID"
// @Param state query string false "PENDING, PAID or EXONERATED"
// @Success 200 {object} response.Response
// @Router /clients/{id}/fines [get]
func (h *FineHandler) ListClientFines(c *fiber.Ctx) error {
	clientID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid client ID")
	}

	state := domain.FineState(strings.ToUpper(strings.TrimSpace(c.Query("state"))))
	if state != "" && !state.Valid() {
		return response.BadRequest(c, "Invalid fine state")
	}

	result, err := h.fines.ListByClient(c.Context(), clientID, state)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Client fines retrieved successfully", result)
}

// GetFine returns one fine
// @Summary Get fine
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fine ID"
// @Success 200 {object} response.Response
// @Router /fines/{id} [get]
func (h *FineHandler) GetFine(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid fine ID")
	}

	fine, err := h.fines.GetFine(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Fine retrieved successfully", fine)
}

// Exonerate waives a pending fine
// @Summary Exonerate fine
// @Description Waive a pending fine with a written justification (Admin only)
// @Tags Fines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fine ID"
// @Param body body services.ExonerateFineInput true "Justification"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /fines/{id}/exonerate [post]
func (h *FineHandler) Exonerate(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid fine ID")
	}

	var input services.ExonerateFineInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	fine, err := h.fines.Exonerate(c.Context(), id, input, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Fine exonerated", fine)
}
