package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// statusClientClosedRequest is written when the client aborted the request.
const statusClientClosedRequest = 499

type errorResponse struct {
	Error string `json:"error"`
}

// errorMapping ties a domain sentinel to its response. An empty message
// echoes the wrapped error text.
type errorMapping struct {
	target error
	code   int
	msg    string
}

// Order matters: the first match wins.
var domainErrors = []errorMapping{
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrProfileNotFound, http.StatusNotFound, "no volunteer profile"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrUserExists, http.StatusConflict, "user already exists"},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidHours, http.StatusBadRequest, domain.ErrInvalidHours.Error()},
	{domain.ErrRoleNotFound, http.StatusNotFound, "role not found"},
	{domain.ErrHoursNotFound, http.StatusNotFound, "hours entry not found"},
	{domain.ErrEventNotFound, http.StatusNotFound, "event not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
}

// NewHTTPErrorHandler renders every handler error as {"error": "..."}.
// Aborted requests get a bare 499 and no log line. Errors outside the
// domain taxonomy are logged and answered with a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if isAborted(err, c) {
			_ = c.NoContent(statusClientClosedRequest)
			return
		}

		code, msg, known := classify(err)
		if !known {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func isAborted(err error, c echo.Context) bool {
	return errors.Is(err, context.Canceled) || c.Request().Context().Err() == context.Canceled
}

func classify(err error) (code int, msg string, known bool) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), true
	}
	for _, m := range domainErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.msg == "" {
			return m.code, err.Error(), true
		}
		return m.code, m.msg, true
	}
	return http.StatusInternalServerError, "internal server error", false
}
