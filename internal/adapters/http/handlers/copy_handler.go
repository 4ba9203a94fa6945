package handlers

import (
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CopyHandler handles copy lookup, condition and catalog status endpoints
type CopyHandler struct {
	copies *services.CopyRegistry
}

// NewCopyHandler creates a new copy handler
func NewCopyHandler(copies *services.CopyRegistry) *CopyHandler {
	return &CopyHandler{copies: copies}
}

// ConditionRequest represents a copy condition change
type ConditionRequest struct {
	State domain.CopyState `json:"state"`
}

// ActiveRequest toggles the catalog status of a copy or a book
type ActiveRequest struct {
	Active bool `json:"active"`
}

// FindByBarcode returns a copy by its barcode
// @Summary Find copy by barcode
// @Tags Copies
// @Produce json
// @Security BearerAuth
// @Param barcode path string true "Barcode"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /copies/barcode/{barcode} [get]
func (h *CopyHandler) FindByBarcode(c *fiber.Ctx) error {
	item, err := h.copies.FindByBarcode(c.Context(), c.Params("barcode"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Copy retrieved successfully", item)
}

// FindLoanable lists the copies of a book that can be lent now
// @Summary Loanable copies of a book
// @Tags Copies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/copies/loanable [get]
func (h *CopyHandler) FindLoanable(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	copies, err := h.copies.FindLoanable(c.Context(), bookID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Loanable copies retrieved successfully", copies)
}

// SetCondition withdraws, writes off or restores a copy
// @Summary Set copy condition
// @Description Move a copy to WITHDRAWN, LOST or DAMAGED, or back to AVAILABLE (Admin only)
// @Tags Copies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param body body ConditionRequest true "Target state"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /copies/{id}/condition [put]
func (h *CopyHandler) SetCondition(c *fiber.Ctx) error {
	copyID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	var req ConditionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	item, err := h.copies.SetCondition(c.Context(), copyID, req.State)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Copy condition updated", item)
}

// SetActive deactivates a copy or restores it
// @Summary Set copy active flag
// @Description Deactivated copies keep their history but cannot be lent or held (Admin only)
// @Tags Copies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param body body ActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /copies/{id}/active [put]
func (h *CopyHandler) SetActive(c *fiber.Ctx) error {
	copyID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	var req ActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	item, err := h.copies.SetActive(c.Context(), copyID, req.Active)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Copy status updated", item)
}

// SetBookActive withdraws a title from the catalog or restores it
// @Summary Set book active flag
// @Description Withdrawn titles accept no new loans or reservations (Admin only)
// @Tags Copies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body ActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/active [put]
func (h *CopyHandler) SetBookActive(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	var req ActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.copies.SetBookActive(c.Context(), bookID, req.Active)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Book status updated", book)
}
