package prometheus_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"saas-platform/internal/apperror"
	"saas-platform/internal/handler"
	metrics "saas-platform/prometheus"
)

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func counterValue(t *testing.T, endpoint, method, status string) float64 {
	t.Helper()
	return testutil.ToFloat64(metrics.HTTPRequestCounter.WithLabelValues(endpoint, method, status))
}

// An errored handler is rendered by the central error handler only
// after the middleware chain has returned, so the middleware must take
// the status from the error itself.
func TestMetricsMiddlewareRecordsErrorStatus(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(metrics.MetricsMiddleware())
	e.GET("/api/projects/:id", func(c echo.Context) error {
		return apperror.New(apperror.NotFound, "project not found")
	})

	rec := serve(e, http.MethodGet, "/api/projects/p1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("response status = %d, want 404", rec.Code)
	}

	if got := counterValue(t, "/api/projects/:id", "GET", "404"); got != 1 {
		t.Errorf("counter for status 404 = %v, want 1", got)
	}
	if got := counterValue(t, "/api/projects/:id", "GET", "200"); got != 0 {
		t.Errorf("counter for status 200 = %v, want 0", got)
	}
}

func TestMetricsMiddlewareRecordsEchoErrorStatus(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(metrics.MetricsMiddleware())
	e.GET("/api/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	serve(e, http.MethodGet, "/api/teapot")
	if got := counterValue(t, "/api/teapot", "GET", "418"); got != 1 {
		t.Errorf("counter for status 418 = %v, want 1", got)
	}
}

func TestMetricsMiddlewareRecordsSuccessStatus(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(metrics.MetricsMiddleware())
	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	rec := serve(e, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("response status = %d, want 200", rec.Code)
	}
	if got := counterValue(t, "/api/health", "GET", "200"); got != 1 {
		t.Errorf("counter for status 200 = %v, want 1", got)
	}
}
