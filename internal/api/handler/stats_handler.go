package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// StatsHandler serves the cached dashboard aggregates.
type StatsHandler struct {
	service ports.StatsService
}

func NewStatsHandler(service ports.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Stats handles GET /api/stats.
//
// @Summary      Dashboard totals
// @Tags         stats
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  domain.DashboardStats
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/stats [get]
func (h *StatsHandler) Stats(c echo.Context) error {
	stats, err := h.service.DashboardStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Trends handles GET /api/stats/trends.
//
// @Summary      Monthly hours and volunteer trends
// @Tags         stats
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  map[string][]domain.MonthlyTrend
// @Failure      403  {object}  errorResponse
// @Router       /api/stats/trends [get]
func (h *StatsHandler) Trends(c echo.Context) error {
	trends, err := h.service.MonthlyTrends(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"months": trends})
}

// Categories handles GET /api/categories.
//
// @Summary      Active event categories
// @Tags         stats
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  map[string][]domain.Category
// @Router       /api/categories [get]
func (h *StatsHandler) Categories(c echo.Context) error {
	categories, err := h.service.ActiveCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"categories": categories})
}

// Roles handles GET /api/roles.
//
// @Summary      Role definitions
// @Tags         stats
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  map[string][]domain.RoleDefinition
// @Router       /api/roles [get]
func (h *StatsHandler) Roles(c echo.Context) error {
	roles, err := h.service.RoleDefinitions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"roles": roles})
}
