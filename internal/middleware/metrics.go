package middleware

import (
	"net/http"
	"time"

	"powerchip/internal/observability"

	"github.com/labstack/echo/v4"
)

func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			duration := float64(time.Since(start).Milliseconds())
			path := routePath(c)
			method := c.Request().Method

			observability.HTTPRequests.WithLabelValues(method, path, http.StatusText(c.Response().Status)).Inc()
			observability.HTTPDuration.WithLabelValues(method, path).Observe(duration)
			return nil
		}
	}
}
