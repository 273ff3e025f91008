package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saas-platform/internal/apperror"
	"saas-platform/internal/model"
	"saas-platform/pkg/jwtutil"
	"saas-platform/pkg/logger"
	"saas-platform/prometheus"
)

// claimsKey is the echo context key the authenticated principal is
// stored under.
const claimsKey = "user"

// AuthMiddleware validates the JWT token from the Authorization header
// and stores the decoded principal in the request context.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return apperror.New(apperror.Unauthenticated, "missing authorization token")
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return apperror.New(apperror.Unauthenticated, "invalid authorization format, expected Bearer token")
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return apperror.New(apperror.Unauthenticated, "invalid or expired token")
		}

		// Only super_admin principals operate without a tenant. Any
		// other tenantless claim set would resolve to an all-tenant
		// scope downstream, so it is rejected here.
		if claims.TenantID == nil && model.Role(claims.Role) != model.RoleSuperAdmin {
			log.Warn("Token missing tenant scope",
				zap.String("user_id", claims.UserID),
				zap.String("role", claims.Role))
			prometheus.RecordAuthError("invalid_token")
			return apperror.New(apperror.Unauthenticated, "invalid or expired token")
		}

		// Store the principal in context for the policy gate and handlers
		c.Set(claimsKey, claims)

		log.Debug("Request authenticated",
			zap.String("user_id", claims.UserID),
			zap.String("role", claims.Role))

		return next(c)
	}
}

// Principal returns the authenticated principal stored by AuthMiddleware
func Principal(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims, ok
}
