package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saas-platform/internal/apperror"
	"saas-platform/pkg/logger"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// respond writes a success envelope
func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// ErrorHandler renders classified errors as the response envelope.
// Internal causes are logged server-side; the caller only ever sees the
// generic message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	log := logger.FromContext(c)

	status := http.StatusInternalServerError
	message := "internal server error"

	if appErr := apperror.AsError(err); appErr != nil {
		status = appErr.Kind.Status()
		switch appErr.Kind {
		case apperror.Internal:
			message = "internal server error"
			log.Error("Request failed", zap.String("kind", appErr.Kind.String()), zap.Error(err))
		case apperror.Dependency:
			message = "service temporarily unavailable"
			log.Error("Request failed", zap.String("kind", appErr.Kind.String()), zap.Error(err))
		default:
			message = appErr.Message
		}
	} else if httpErr, ok := err.(*echo.HTTPError); ok {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	} else {
		log.Error("Unhandled error", zap.Error(err))
	}

	if writeErr := c.JSON(status, Response{Success: false, Message: message}); writeErr != nil {
		log.Error("Failed to write error response", zap.Error(writeErr))
	}
}
