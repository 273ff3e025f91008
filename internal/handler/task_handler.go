package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saas-platform/internal/apperror"
	"saas-platform/internal/audit"
	"saas-platform/internal/authz"
	"saas-platform/internal/middleware"
	"saas-platform/internal/model"
	"saas-platform/pkg/database"
	"saas-platform/pkg/logger"
	"saas-platform/prometheus"
)

// ListTasks lists tasks visible under the principal's scope, optionally
// filtered by project
func ListTasks(c echo.Context) error {
	prometheus.RecordEntityOperation("task", "list")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := scope.Apply(database.GetDB())
	if projectID := c.QueryParam("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if status := c.QueryParam("status"); status != "" {
		if !model.TaskStatus(status).Valid() {
			return apperror.New(apperror.Validation, "unknown task status")
		}
		query = query.Where("status = ?", status)
	}

	var tasks []model.Task
	if result := query.Order("created_at").Find(&tasks); result.Error != nil {
		return apperror.Wrap(apperror.Internal, "failed to retrieve tasks", result.Error)
	}

	return respond(c, http.StatusOK, "", echo.Map{"tasks": tasks})
}

// CreateTask creates a task under a project in the principal's scope.
// The task's tenant_id is copied from the parent project, never taken
// from the request, so the two can never diverge.
func CreateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "create")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	var req struct {
		ProjectID   string     `json:"project_id"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		Status      string     `json:"status,omitempty"`
		Priority    string     `json:"priority,omitempty"`
		AssigneeID  *string    `json:"assignee_id,omitempty"`
		DueDate     *time.Time `json:"due_date,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid request")
	}
	if req.ProjectID == "" || req.Title == "" {
		return apperror.New(apperror.Validation, "project_id and title are required")
	}

	status := model.TaskTodo
	if req.Status != "" {
		status = model.TaskStatus(req.Status)
		if !status.Valid() {
			return apperror.New(apperror.Validation, "unknown task status")
		}
	}
	priority := model.PriorityMedium
	if req.Priority != "" {
		priority = model.TaskPriority(req.Priority)
		if !priority.Valid() {
			return apperror.New(apperror.Validation, "unknown task priority")
		}
	}

	// The parent project must be visible under the principal's scope
	defer prometheus.TrackDBOperation("insert")(time.Now())
	var project model.Project
	if result := scope.Apply(database.GetDB()).First(&project, "id = ?", req.ProjectID); result.Error != nil {
		return apperror.FromDB(result.Error, "project not found", "")
	}

	// An assignee must be a user of the same tenant
	if req.AssigneeID != nil {
		var assignee model.User
		result := database.GetDB().
			Where("id = ? AND tenant_id = ?", *req.AssigneeID, project.TenantID).
			First(&assignee)
		if result.Error != nil {
			return apperror.New(apperror.Validation, "assignee not found in tenant")
		}
	}

	task := model.Task{
		ProjectID:   project.ID,
		TenantID:    project.TenantID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   claims.UserID,
		DueDate:     req.DueDate,
	}

	if result := database.GetDB().Create(&task); result.Error != nil {
		log.Error("Failed to create task", zap.Error(result.Error))
		return apperror.Wrap(apperror.Internal, "task creation failed", result.Error)
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &task.TenantID,
		Action:     "task_created",
		EntityType: "task",
		EntityID:   task.ID,
		IPAddress:  c.RealIP(),
	})

	log.Info("Task created",
		zap.String("task_id", task.ID),
		zap.String("project_id", task.ProjectID))
	return respond(c, http.StatusCreated, "Task created successfully", task)
}

// GetTask retrieves a task within the principal's scope
func GetTask(c echo.Context) error {
	prometheus.RecordEntityOperation("task", "read")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var task model.Task
	if result := scope.Apply(database.GetDB()).First(&task, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "task not found", "")
	}

	return respond(c, http.StatusOK, "", task)
}

// UpdateTask updates a task. A plain user may only update tasks
// assigned to or created by themself.
func UpdateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "update")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	var req struct {
		Title       string     `json:"title,omitempty"`
		Description string     `json:"description,omitempty"`
		Status      string     `json:"status,omitempty"`
		Priority    string     `json:"priority,omitempty"`
		AssigneeID  *string    `json:"assignee_id,omitempty"`
		DueDate     *time.Time `json:"due_date,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid request")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var task model.Task
	if result := scope.Apply(database.GetDB()).First(&task, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "task not found", "")
	}

	if !authz.CanModifyTask(claims, &task) {
		prometheus.RecordAuthError("ownership_denied")
		return apperror.New(apperror.Unauthorized, "unauthorized access")
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Status != "" {
		status := model.TaskStatus(req.Status)
		if !status.Valid() {
			return apperror.New(apperror.Validation, "unknown task status")
		}
		task.Status = status
	}
	if req.Priority != "" {
		priority := model.TaskPriority(req.Priority)
		if !priority.Valid() {
			return apperror.New(apperror.Validation, "unknown task priority")
		}
		task.Priority = priority
	}
	if req.AssigneeID != nil {
		var assignee model.User
		result := database.GetDB().
			Where("id = ? AND tenant_id = ?", *req.AssigneeID, task.TenantID).
			First(&assignee)
		if result.Error != nil {
			return apperror.New(apperror.Validation, "assignee not found in tenant")
		}
		task.AssigneeID = req.AssigneeID
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if result := database.GetDB().Save(&task); result.Error != nil {
		log.Error("Failed to update task", zap.Error(result.Error))
		return apperror.Wrap(apperror.Internal, "task update failed", result.Error)
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &task.TenantID,
		Action:     "task_updated",
		EntityType: "task",
		EntityID:   task.ID,
		IPAddress:  c.RealIP(),
	})

	return respond(c, http.StatusOK, "Task updated successfully", task)
}

// DeleteTask soft-deletes a task. Policy gate restricts the route to
// admins.
func DeleteTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "delete")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("delete")(time.Now())
	var task model.Task
	if result := scope.Apply(database.GetDB()).First(&task, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "task not found", "")
	}

	if result := database.GetDB().Delete(&task); result.Error != nil {
		log.Error("Failed to delete task", zap.Error(result.Error))
		return apperror.Wrap(apperror.Internal, "task deletion failed", result.Error)
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &task.TenantID,
		Action:     "task_deleted",
		EntityType: "task",
		EntityID:   task.ID,
		IPAddress:  c.RealIP(),
	})

	return respond(c, http.StatusOK, "Task deleted successfully", nil)
}
