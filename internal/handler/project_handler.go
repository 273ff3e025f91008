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

// ListProjects lists projects visible under the principal's scope
func ListProjects(c echo.Context) error {
	prometheus.RecordEntityOperation("project", "list")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var projects []model.Project
	query := scope.Apply(database.GetDB())
	if status := c.QueryParam("status"); status != "" {
		if !model.ProjectStatus(status).Valid() {
			return apperror.New(apperror.Validation, "unknown project status")
		}
		query = query.Where("status = ?", status)
	}
	if result := query.Order("created_at").Find(&projects); result.Error != nil {
		return apperror.Wrap(apperror.Internal, "failed to retrieve projects", result.Error)
	}

	return respond(c, http.StatusOK, "", echo.Map{"projects": projects})
}

// CreateProject creates a project in the target tenant. The tenant's
// max_projects cap is checked inside the insert transaction.
func CreateProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("project", "create")

	claims, _ := middleware.Principal(c)

	var req struct {
		TenantID    string `json:"tenant_id,omitempty"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid request")
	}
	if req.Name == "" {
		return apperror.New(apperror.Validation, "name is required")
	}

	tenantID, err := targetTenantID(claims, req.TenantID)
	if err != nil {
		return err
	}

	project := model.Project{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Status:      model.ProjectActive,
		CreatedBy:   claims.UserID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	txErr := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if result := tx.First(&tenant, "id = ?", tenantID); result.Error != nil {
			return apperror.FromDB(result.Error, "tenant not found", "")
		}

		var count int64
		if result := tx.Model(&model.Project{}).Where("tenant_id = ?", tenantID).Count(&count); result.Error != nil {
			return apperror.Wrap(apperror.Internal, "project creation failed", result.Error)
		}
		if count >= int64(tenant.MaxProjects) {
			return apperror.New(apperror.Validation, "project limit reached for the subscription plan")
		}

		if result := tx.Create(&project); result.Error != nil {
			return apperror.Wrap(apperror.Internal, "project creation failed", result.Error)
		}
		return nil
	})
	if txErr != nil {
		log.Error("Project creation failed", zap.String("name", req.Name), zap.Error(txErr))
		return txErr
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &tenantID,
		Action:     "project_created",
		EntityType: "project",
		EntityID:   project.ID,
		IPAddress:  c.RealIP(),
	})

	log.Info("Project created", zap.String("project_id", project.ID), zap.String("tenant_id", tenantID))
	return respond(c, http.StatusCreated, "Project created successfully", project)
}

// GetProject retrieves a project within the principal's scope.
// A project in another tenant reads as not found.
func GetProject(c echo.Context) error {
	prometheus.RecordEntityOperation("project", "read")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var project model.Project
	if result := scope.Apply(database.GetDB()).First(&project, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "project not found", "")
	}

	return respond(c, http.StatusOK, "", project)
}

// UpdateProject updates a project. A plain user may only update
// projects they created.
func UpdateProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("project", "update")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	var req struct {
		Name        string `json:"name,omitempty"`
		Description string `json:"description,omitempty"`
		Status      string `json:"status,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid request")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var project model.Project
	if result := scope.Apply(database.GetDB()).First(&project, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "project not found", "")
	}

	if !authz.CanModifyProject(claims, &project) {
		prometheus.RecordAuthError("ownership_denied")
		return apperror.New(apperror.Unauthorized, "unauthorized access")
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Status != "" {
		status := model.ProjectStatus(req.Status)
		if !status.Valid() {
			return apperror.New(apperror.Validation, "unknown project status")
		}
		project.Status = status
	}

	if result := database.GetDB().Save(&project); result.Error != nil {
		log.Error("Failed to update project", zap.Error(result.Error))
		return apperror.Wrap(apperror.Internal, "project update failed", result.Error)
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &project.TenantID,
		Action:     "project_updated",
		EntityType: "project",
		EntityID:   project.ID,
		IPAddress:  c.RealIP(),
	})

	return respond(c, http.StatusOK, "Project updated successfully", project)
}

// DeleteProject soft-deletes a project and its tasks in one
// transaction. Policy gate restricts the route to admins.
func DeleteProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("project", "delete")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("delete")(time.Now())
	var project model.Project
	if result := scope.Apply(database.GetDB()).First(&project, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "project not found", "")
	}

	txErr := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&model.Task{}).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "project deletion failed", err)
		}
		if err := tx.Delete(&project).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "project deletion failed", err)
		}
		return nil
	})
	if txErr != nil {
		log.Error("Project deletion failed", zap.String("project_id", project.ID), zap.Error(txErr))
		return txErr
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &project.TenantID,
		Action:     "project_deleted",
		EntityType: "project",
		EntityID:   project.ID,
		IPAddress:  c.RealIP(),
	})

	return respond(c, http.StatusOK, "Project deleted successfully", nil)
}
