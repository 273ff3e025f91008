package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"saas-platform/internal/apperror"
	"saas-platform/internal/authz"
	"saas-platform/internal/middleware"
	"saas-platform/internal/model"
	"saas-platform/pkg/database"
	"saas-platform/prometheus"
)

const (
	defaultAuditPageSize = 100
	maxAuditPageSize     = 1000
)

// ListAuditLogs returns recent audit entries: super_admin across all
// tenants, tenant_admin only their own. The log itself is append-only;
// this is the sole read surface.
func ListAuditLogs(c echo.Context) error {
	prometheus.RecordEntityOperation("audit_log", "list")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	limit := defaultAuditPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return apperror.New(apperror.Validation, "invalid limit")
		}
		if parsed > maxAuditPageSize {
			parsed = maxAuditPageSize
		}
		limit = parsed
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := scope.Apply(database.GetDB())
	if action := c.QueryParam("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var entries []model.AuditLog
	if result := query.Order("created_at DESC").Limit(limit).Find(&entries); result.Error != nil {
		return apperror.Wrap(apperror.Internal, "failed to retrieve audit logs", result.Error)
	}

	return respond(c, http.StatusOK, "", echo.Map{"auditLogs": entries})
}
