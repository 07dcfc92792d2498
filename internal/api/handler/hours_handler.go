package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// HoursHandler handles logging and review of volunteer hours.
type HoursHandler struct {
	service ports.HoursService
}

func NewHoursHandler(service ports.HoursService) *HoursHandler {
	return &HoursHandler{service: service}
}

type logHoursRequest struct {
	EventID string  `json:"event_id" validate:"required"`
	Hours   float64 `json:"hours"    validate:"gt=0,lte=24"`
}

// Log handles POST /api/hours.
//
// @Summary      Log volunteer hours
// @Tags         hours
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body      logHoursRequest  true  "Event and hours"
// @Success      201   {object}  domain.HoursEntry
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/hours [post]
func (h *HoursHandler) Log(c echo.Context) error {
	var req logHoursRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Log(c.Request().Context(), ports.LogHoursInput{
		EventID: req.EventID,
		Hours:   req.Hours,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// Approve handles POST /api/hours/:id/approve.
//
// @Summary      Approve an hours entry
// @Tags         hours
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "Hours entry ID"
// @Success      200  {object}  domain.HoursEntry
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /api/hours/{id}/approve [post]
func (h *HoursHandler) Approve(c echo.Context) error {
	entry, err := h.service.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// Reject handles POST /api/hours/:id/reject.
//
// @Summary      Reject an hours entry
// @Tags         hours
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "Hours entry ID"
// @Success      200  {object}  domain.HoursEntry
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /api/hours/{id}/reject [post]
func (h *HoursHandler) Reject(c echo.Context) error {
	entry, err := h.service.Reject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}
