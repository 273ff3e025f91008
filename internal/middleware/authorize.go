package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saas-platform/internal/apperror"
	"saas-platform/internal/authz"
	"saas-platform/internal/model"
	"saas-platform/pkg/logger"
	"saas-platform/prometheus"
)

// Authorize gates a route on the declarative policy table: the
// principal's role must be permitted for the route's action. Ownership
// checks beyond role membership run in the handler once the entity is
// loaded.
func Authorize(action authz.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Principal(c)
			if !ok {
				return apperror.New(apperror.Unauthenticated, "authentication required")
			}

			if err := authz.Check(model.Role(claims.Role), action); err != nil {
				logger.FromContext(c).Warn("Permission denied",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
					zap.String("action", string(action)))
				prometheus.RecordAuthError("permission_denied")
				return err
			}

			return next(c)
		}
	}
}
