package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"saas-platform/internal/apperror"
)

func loggedStatus(t *testing.T, h echo.HandlerFunc) int64 {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks/t1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = Middleware(zap.New(core))(h)(c)

	entries := logs.FilterMessage("HTTP Request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log entry, got %d", len(entries))
	}
	status, ok := entries[0].ContextMap()["status"].(int64)
	if !ok {
		t.Fatalf("status field missing from request log: %+v", entries[0].ContextMap())
	}
	return status
}

// The request log must carry the status the caller will see, even
// though errored handlers are rendered after the middleware returns.
func TestMiddlewareLogsErrorStatus(t *testing.T) {
	status := loggedStatus(t, func(c echo.Context) error {
		return apperror.New(apperror.NotFound, "task not found")
	})
	if status != http.StatusNotFound {
		t.Errorf("logged status = %d, want 404", status)
	}
}

func TestMiddlewareLogsEchoErrorStatus(t *testing.T) {
	status := loggedStatus(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed")
	})
	if status != http.StatusMethodNotAllowed {
		t.Errorf("logged status = %d, want 405", status)
	}
}

func TestMiddlewareLogsSuccessStatus(t *testing.T) {
	status := loggedStatus(t, func(c echo.Context) error {
		return c.JSON(http.StatusCreated, echo.Map{"id": "t1"})
	})
	if status != http.StatusCreated {
		t.Errorf("logged status = %d, want 201", status)
	}
}

func TestMiddlewareLogsUnknownErrorAsInternal(t *testing.T) {
	status := loggedStatus(t, func(c echo.Context) error {
		return echo.ErrInternalServerError
	})
	if status != http.StatusInternalServerError {
		t.Errorf("logged status = %d, want 500", status)
	}
}
