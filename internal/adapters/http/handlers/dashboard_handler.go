package handlers

import (
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetCirculationDashboard returns desk figures
// @Summary Circulation dashboard
// @Description Copies by state, open and overdue loans, queue and cash desk totals
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/circulation [get]
func (h *DashboardHandler) GetCirculationDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetCirculationDashboard(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Circulation dashboard retrieved successfully", data)
}
