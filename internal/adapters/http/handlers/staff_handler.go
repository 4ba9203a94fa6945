package handlers

import (
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/pagination"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StaffHandler handles staff account endpoints
type StaffHandler struct {
	staff *services.StaffService
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(staff *services.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// ListStaff handles listing staff accounts (Admin only)
// @Summary List staff accounts
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /staff [get]
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	result, err := h.staff.ListStaff(c.Context(), pagination.GetParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Staff retrieved successfully", result)
}

// GetStaff handles getting one staff account (Admin only)
// @Summary Get staff account
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /staff/{id} [get]
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.staff.GetStaff(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "User retrieved successfully", fiber.Map{"user": user})
}

// CreateStaff handles opening a staff account (Admin only)
// @Summary Create staff account
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateStaffInput true "Account"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /staff [post]
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	var input services.CreateStaffInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.staff.CreateStaff(c.Context(), &input)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, "User created successfully", fiber.Map{"user": user})
}

// UpdateStaff handles updating a staff account (Admin only)
// @Summary Update staff account
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.UpdateStaffInput true "Changes"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /staff/{id} [put]
func (h *StaffHandler) UpdateStaff(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.UpdateStaffInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.staff.UpdateStaff(c.Context(), id, adminID, &input)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "User updated successfully", fiber.Map{"user": user})
}

// ChangePassword handles changing the caller's own password
// @Summary Change password
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Old and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/password [put]
func (h *StaffHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.staff.ChangePassword(c.Context(), userID, &input); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Password changed successfully", nil)
}
