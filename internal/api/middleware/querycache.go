package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/helpinghands/volunteer-dashboard/pkg/querycache"
)

// QueryCache places the process-wide query cache in the request context.
func QueryCache(qc *querycache.QueryCache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(querycache.NewContext(req.Context(), qc)))
			return next(c)
		}
	}
}
