package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PageHandler renders the dashboard shell pages. Their bodies are small
// JSON documents the front end hydrates; gating happens in the guard
// middleware mounted in front of them.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

type pageResponse struct {
	Page      string `json:"page"`
	Volunteer string `json:"volunteer,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
	Next      string `json:"next,omitempty"`
}

func (h *PageHandler) Dashboard(c echo.Context) error { return h.render(c, "dashboard") }

func (h *PageHandler) Admin(c echo.Context) error { return h.render(c, "admin") }

func (h *PageHandler) Reports(c echo.Context) error { return h.render(c, "reports") }

// Offline is served without a session.
func (h *PageHandler) Offline(c echo.Context) error {
	return c.JSON(http.StatusOK, pageResponse{Page: "offline"})
}

// SignIn renders the sign-in page and carries the return target through.
func (h *PageHandler) SignIn(c echo.Context) error {
	return c.JSON(http.StatusOK, pageResponse{Page: "sign-in", Next: safeNext(c.QueryParam("next"))})
}

// AuthCallback is the landing point of external identity redirects.
func (h *PageHandler) AuthCallback(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func (h *PageHandler) render(c echo.Context, page string) error {
	cache, err := requestCache(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	v, err := cache.CurrentVolunteer(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse{
		Page:      page,
		Volunteer: v.FullName(),
		IsAdmin:   cache.IsAdmin(ctx),
	})
}
