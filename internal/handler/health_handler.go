package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"replenishment-service/pkg/logger"
)

// Pinger reports whether a backing store is reachable
type Pinger func(ctx context.Context) error

// HealthCheck handles the health check endpoint. A nil ping only reports
// that the process is up.
func HealthCheck(service string, ping Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			if err := ping(c.Request().Context()); err != nil {
				logger.FromEcho(c).Warn("Health check failed", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{
					"status":  "unhealthy",
					"service": service,
					"error":   "database unreachable",
				})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "healthy",
			"service": service,
		})
	}
}
