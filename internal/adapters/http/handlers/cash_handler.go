package handlers

import (
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CashHandler handles the fines desk
type CashHandler struct {
	cash *services.CashSessionService
}

// NewCashHandler creates a new cash desk handler
func NewCashHandler(cash *services.CashSessionService) *CashHandler {
	return &CashHandler{cash: cash}
}

// OpenSessionRequest represents the float a cashier starts with
type OpenSessionRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// PaymentRequest represents a payment against a fine
type PaymentRequest struct {
	FineID uint            `json:"fine_id"`
	Amount decimal.Decimal `json:"amount"`
}

// CloseSessionRequest represents the counted cash at close
type CloseSessionRequest struct {
	CountedBalance decimal.Decimal `json:"counted_balance"`
}

// OpenSession starts a cashier shift
// @Summary Open cash session
// @Tags Cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body OpenSessionRequest true "Opening balance"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /cash/sessions [post]
func (h *CashHandler) OpenSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req OpenSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	session, err := h.cash.Open(c.Context(), userID, req.OpeningBalance)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, "Cash session opened", session)
}

// CurrentSession returns the caller's open session
// @Summary Current cash session
// @Tags Cash
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /cash/sessions/current [get]
func (h *CashHandler) CurrentSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	session, err := h.cash.Current(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash session retrieved successfully", session)
}

// PayFine takes a payment in the given session
// @Summary Pay fine
// @Tags Cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param body body PaymentRequest true "Fine and amount"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /cash/sessions/{id}/payments [post]
func (h *CashHandler) PayFine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	sessionID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.cash.PayFine(c.Context(), services.PayFineInput{
		SessionID: sessionID,
		FineID:    req.FineID,
		Amount:    req.Amount,
	}, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, "Payment recorded", result)
}

// CloseSession counts the drawer and closes the session
// @Summary Close cash session
// @Tags Cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param body body CloseSessionRequest true "Counted balance"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /cash/sessions/{id}/close [post]
func (h *CashHandler) CloseSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	sessionID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req CloseSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	summary, err := h.cash.Close(c.Context(), sessionID, req.CountedBalance, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash session closed", summary)
}

// GetSession returns a session with its payments
// @Summary Cash session summary
// @Tags Cash
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} response.Response
// @Router /cash/sessions/{id} [get]
func (h *CashHandler) GetSession(c *fiber.Ctx) error {
	sessionID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid session ID")
	}

	summary, err := h.cash.Summary(c.Context(), sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash session retrieved successfully", summary)
}
