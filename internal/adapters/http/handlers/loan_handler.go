package handlers

import (
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/pagination"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles circulation desk loan endpoints
type LoanHandler struct {
	ledger *services.LoanLedger
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(ledger *services.LoanLedger) *LoanHandler {
	return &LoanHandler{ledger: ledger}
}

// ReturnByBarcodeRequest represents a scanned return
type ReturnByBarcodeRequest struct {
	Barcode string `json:"barcode"`
}

// ============================================================
// Lending
// ============================================================

// CreateLoan lends a copy to a client
// @Summary Create loan
// @Description Lend a copy. Checks client standing, copy availability, duplicate loans and the fine ceiling in that order.
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateLoanInput true "Client and copy"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.ledger.CreateLoan(c.Context(), input, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, "Loan created successfully", loan)
}

// RenewLoan extends a loan by one period
// @Summary Renew loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/renew [post]
func (h *LoanHandler) RenewLoan(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	loanID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.ledger.RenewLoan(c.Context(), loanID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Loan renewed successfully", loan)
}

// ReturnLoan closes a loan and charges any late fine
// @Summary Return loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/return [post]
func (h *LoanHandler) ReturnLoan(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	loanID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	result, err := h.ledger.ReturnLoan(c.Context(), loanID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Loan returned successfully", result)
}

// ReturnByBarcode returns the open loan of a scanned copy
// @Summary Return by barcode
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ReturnByBarcodeRequest true "Scanned barcode"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/return-by-barcode [post]
func (h *LoanHandler) ReturnByBarcode(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ReturnByBarcodeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.ledger.ReturnByBarcode(c.Context(), req.Barcode, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Loan returned successfully", result)
}

// ============================================================
// Queries
// ============================================================

// GetLoan returns a loan and its fine
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	loanID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	detail, err := h.ledger.GetLoan(c.Context(), loanID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Loan retrieved successfully", detail)
}

// ListOverdue lists overdue loans, most overdue first
// @Summary Overdue loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response
// @Router /loans/overdue [get]
func (h *LoanHandler) ListOverdue(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, err := h.ledger.ListOverdue(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	start, end := params.Bounds(len(loans))
	return response.Success(c, "Overdue loans retrieved successfully",
		pagination.NewResponse(loans[start:end], params, int64(len(loans))))
}

// ListClientLoans lists a client's open loans
// @Summary Open loans of a client
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Client ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /clients/{id}/loans [get]
func (h *LoanHandler) ListClientLoans(c *fiber.Ctx) error {
	clientID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid client ID")
	}

	loans, err := h.ledger.ListOpenLoans(c.Context(), clientID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Client loans retrieved successfully", loans)
}
