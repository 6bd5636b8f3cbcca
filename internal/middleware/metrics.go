package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"replenishment-service/prometheus"
)

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		// c.Path() is the route pattern, which keeps label cardinality bounded
		prometheus.RecordHTTPRequest(
			c.Request().Method,
			c.Path(),
			strconv.Itoa(c.Response().Status),
			time.Since(start),
		)
		return err
	}
}
