package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"saas-platform/internal/apperror"
	"saas-platform/internal/audit"
	"saas-platform/internal/authz"
	"saas-platform/internal/middleware"
	"saas-platform/internal/model"
	"saas-platform/pkg/database"
	"saas-platform/pkg/logger"
	"saas-platform/prometheus"
)

// ListTenants returns all tenants. Policy gate restricts the route to
// super_admin.
func ListTenants(c echo.Context) error {
	prometheus.RecordEntityOperation("tenant", "list")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenants []model.Tenant
	if result := database.GetDB().Order("created_at").Find(&tenants); result.Error != nil {
		return apperror.Wrap(apperror.Internal, "failed to retrieve tenants", result.Error)
	}

	var active int64
	if result := database.GetDB().Model(&model.Tenant{}).Where("status = ?", model.TenantActive).Count(&active); result.Error == nil {
		prometheus.UpdateActiveTenants(active)
	}

	return respond(c, http.StatusOK, "", echo.Map{"tenants": tenants})
}

// CreateTenant creates a tenant without an admin user, for operators
// provisioning manually. Self-service registration goes through
// RegisterTenant instead.
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("tenant", "create")

	var req struct {
		Name      string `json:"name"`
		Subdomain string `json:"subdomain"`
		Plan      string `json:"plan,omitempty"`
		Status    string `json:"status,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid request")
	}
	if req.Name == "" || req.Subdomain == "" {
		return apperror.New(apperror.Validation, "name and subdomain are required")
	}

	plan := model.PlanFree
	if req.Plan != "" {
		plan = model.SubscriptionPlan(req.Plan)
		if !plan.Valid() {
			return apperror.New(apperror.Validation, "unknown subscription plan")
		}
	}
	status := model.TenantActive
	if req.Status != "" {
		status = model.TenantStatus(req.Status)
		if !status.Valid() {
			return apperror.New(apperror.Validation, "unknown tenant status")
		}
	}

	limits := plan.Limits()
	tenant := model.Tenant{
		Name:        req.Name,
		Subdomain:   req.Subdomain,
		Status:      status,
		Plan:        plan,
		MaxUsers:    limits.MaxUsers,
		MaxProjects: limits.MaxProjects,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&tenant); result.Error != nil {
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return apperror.FromDB(result.Error, "tenant not found", "subdomain already exists")
	}

	claims, _ := middleware.Principal(c)
	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &tenant.ID,
		Action:     "tenant_created",
		EntityType: "tenant",
		EntityID:   tenant.ID,
		IPAddress:  c.RealIP(),
	})

	log.Info("Tenant created", zap.String("tenant_id", tenant.ID), zap.String("subdomain", tenant.Subdomain))
	return respond(c, http.StatusCreated, "Tenant created successfully", tenant)
}

// GetTenant retrieves a tenant: super_admin any, tenant_admin only
// their own.
func GetTenant(c echo.Context) error {
	prometheus.RecordEntityOperation("tenant", "read")

	claims, _ := middleware.Principal(c)
	id := c.Param("id")

	if !authz.CanManageTenant(claims, id) {
		// Another tenant's existence is not leaked
		return apperror.New(apperror.NotFound, "tenant not found")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, "id = ?", id); result.Error != nil {
		return apperror.FromDB(result.Error, "tenant not found", "")
	}

	return respond(c, http.StatusOK, "", tenant)
}

// UpdateTenant updates tenant attributes. Plan changes re-derive the
// resource limits and are restricted to super_admin.
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("tenant", "update")

	claims, _ := middleware.Principal(c)
	id := c.Param("id")

	if !authz.CanManageTenant(claims, id) {
		return apperror.New(apperror.NotFound, "tenant not found")
	}

	var req struct {
		Name   string `json:"name,omitempty"`
		Plan   string `json:"plan,omitempty"`
		Status string `json:"status,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid request")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, "id = ?", id); result.Error != nil {
		return apperror.FromDB(result.Error, "tenant not found", "")
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.Plan != "" {
		if model.Role(claims.Role) != model.RoleSuperAdmin {
			return apperror.New(apperror.Unauthorized, "plan changes require a platform administrator")
		}
		plan := model.SubscriptionPlan(req.Plan)
		if !plan.Valid() {
			return apperror.New(apperror.Validation, "unknown subscription plan")
		}
		limits := plan.Limits()
		tenant.Plan = plan
		tenant.MaxUsers = limits.MaxUsers
		tenant.MaxProjects = limits.MaxProjects
	}
	if req.Status != "" {
		if model.Role(claims.Role) != model.RoleSuperAdmin {
			return apperror.New(apperror.Unauthorized, "status changes require a platform administrator")
		}
		status := model.TenantStatus(req.Status)
		if !status.Valid() {
			return apperror.New(apperror.Validation, "unknown tenant status")
		}
		tenant.Status = status
	}

	if result := database.GetDB().Save(&tenant); result.Error != nil {
		log.Error("Failed to update tenant", zap.Error(result.Error))
		return apperror.Wrap(apperror.Internal, "tenant update failed", result.Error)
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &tenant.ID,
		Action:     "tenant_updated",
		EntityType: "tenant",
		EntityID:   tenant.ID,
		IPAddress:  c.RealIP(),
	})

	return respond(c, http.StatusOK, "Tenant updated successfully", tenant)
}

// DeleteTenant soft-deletes a tenant and cascades to its users,
// projects, and tasks in one transaction. Afterwards nothing referencing
// the tenant id remains queryable.
func DeleteTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("tenant", "delete")

	claims, _ := middleware.Principal(c)
	id := c.Param("id")

	if !authz.CanManageTenant(claims, id) {
		return apperror.New(apperror.NotFound, "tenant not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	txErr := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if result := tx.First(&tenant, "id = ?", id); result.Error != nil {
			return apperror.FromDB(result.Error, "tenant not found", "")
		}

		if err := tx.Where("tenant_id = ?", id).Delete(&model.Task{}).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "tenant deletion failed", err)
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&model.Project{}).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "tenant deletion failed", err)
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&model.RefreshToken{}).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "tenant deletion failed", err)
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&model.User{}).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "tenant deletion failed", err)
		}
		if err := tx.Delete(&tenant).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "tenant deletion failed", err)
		}
		return nil
	})
	if txErr != nil {
		log.Error("Tenant deletion failed", zap.String("tenant_id", id), zap.Error(txErr))
		return txErr
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &id,
		Action:     "tenant_deleted",
		EntityType: "tenant",
		EntityID:   id,
		IPAddress:  c.RealIP(),
	})

	log.Info("Tenant deleted", zap.String("tenant_id", id))
	return respond(c, http.StatusOK, "Tenant deleted successfully", nil)
}
