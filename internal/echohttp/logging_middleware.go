package echohttp

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// custom echo middleware used for request logging. The matched route pattern
// is logged next to the raw url so entries with path parameters group by
// endpoint.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()

			err := next(c)

			slog.Info("handled request",
				"method", c.Request().Method,
				"route", c.Path(),
				"url", c.Request().URL,
				"status", c.Response().Status,
				"bytes", c.Response().Size,
				"duration", time.Since(now))
			return err
		}
	}
}
