package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

type HTTPRecorder interface {
	RecordHTTP(route, method string, status int, elapsed time.Duration)
}

// Metrics records request counts and latency labelled by route template.
func Metrics(rec HTTPRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			rec.RecordHTTP(route, c.Request().Method, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
