package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saas-platform/pkg/database"
	"saas-platform/pkg/logger"
	"saas-platform/prometheus"
)

// HealthCheck reports service and database health. An unreachable
// database answers 503 so load balancers stop routing here.
func HealthCheck(c echo.Context) error {
	if err := database.Ping(c.Request().Context(), 2*time.Second); err != nil {
		logger.FromContext(c).Error("Database health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Message: "database disconnected",
			Data:    echo.Map{"status": "error", "database": "disconnected"},
		})
	}

	return respond(c, http.StatusOK, "", echo.Map{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	})
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
