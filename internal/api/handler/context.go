package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helpinghands/volunteer-dashboard/internal/api/middleware"
	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// requestCache returns the auth cache attached by the session middleware.
// Its absence means the route was mounted outside the session middleware,
// which reads as an unauthenticated request.
func requestCache(c echo.Context) (*authcache.Cache, error) {
	cache := middleware.AuthCache(c)
	if cache == nil {
		return nil, domain.ErrUnauthorized
	}
	return cache, nil
}

// bindAndValidate binds the request body into req and runs the registered
// validator over it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
