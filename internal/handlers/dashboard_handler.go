package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inventory-service/internal/auth"
	"inventory-service/internal/services"
)

// DashboardHandler serves the read-only aggregation over ledger and log data.
type DashboardHandler struct {
	Dashboard *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Dashboard: dashboard}
}

// Stats handles GET /dashboard/stats.
// @Summary Dashboard statistics
// @Description Aggregated view over items, projects and recent activity
// @Tags dashboard
// @Accept json
// @Produce json
// @Success 200 {object} services.DashboardStats "Dashboard statistics"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.Dashboard.Stats(c.Context(), auth.ActorID(c))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(stats)
}
