package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"saas-platform/internal/apperror"
	"saas-platform/internal/audit"
	"saas-platform/internal/authz"
	"saas-platform/internal/middleware"
	"saas-platform/internal/model"
	"saas-platform/pkg/database"
	"saas-platform/pkg/jwtutil"
	"saas-platform/pkg/logger"
	"saas-platform/prometheus"
)

// targetTenantID resolves the tenant a mutation applies to: the
// principal's own tenant, or an explicit tenant_id when a super_admin
// (whose scope spans all tenants) is acting.
func targetTenantID(claims *jwtutil.UserClaims, requested string) (string, error) {
	scope := authz.ScopeFor(claims)
	if !scope.AllTenants() {
		return *scope.TenantID(), nil
	}
	if requested == "" {
		return "", apperror.New(apperror.Validation, "tenant_id is required")
	}
	return requested, nil
}

// ListUsers lists users visible under the principal's scope
func ListUsers(c echo.Context) error {
	prometheus.RecordEntityOperation("user", "list")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if result := scope.Apply(database.GetDB()).Order("created_at").Find(&users); result.Error != nil {
		return apperror.Wrap(apperror.Internal, "failed to retrieve users", result.Error)
	}

	return respond(c, http.StatusOK, "", echo.Map{"users": users})
}

// CreateUser creates a user in the target tenant. The tenant's
// max_users cap is checked inside the insert transaction.
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "create")

	claims, _ := middleware.Principal(c)

	var req struct {
		TenantID string `json:"tenant_id,omitempty"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid request")
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return apperror.New(apperror.Validation, "email, password and full_name are required")
	}
	if len(req.Password) < 8 {
		return apperror.New(apperror.Validation, "password must be at least 8 characters")
	}

	role := model.RoleUser
	if req.Role != "" {
		role = model.Role(req.Role)
		// super_admin principals are seeded at startup, never minted here
		if !role.Valid() || role == model.RoleSuperAdmin {
			return apperror.New(apperror.Validation, "unknown role")
		}
	}

	tenantID, err := targetTenantID(claims, req.TenantID)
	if err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return apperror.Wrap(apperror.Internal, "user creation failed", err)
	}

	user := model.User{
		TenantID:     &tenantID,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		FullName:     req.FullName,
		Role:         role,
		Active:       true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	txErr := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if result := tx.First(&tenant, "id = ?", tenantID); result.Error != nil {
			return apperror.FromDB(result.Error, "tenant not found", "")
		}

		var count int64
		if result := tx.Model(&model.User{}).Where("tenant_id = ?", tenantID).Count(&count); result.Error != nil {
			return apperror.Wrap(apperror.Internal, "user creation failed", result.Error)
		}
		if count >= int64(tenant.MaxUsers) {
			return apperror.New(apperror.Validation, "user limit reached for the subscription plan")
		}

		if result := tx.Create(&user); result.Error != nil {
			return apperror.FromDB(result.Error, "user not found", "email already registered in this tenant")
		}
		return nil
	})
	if txErr != nil {
		log.Error("User creation failed", zap.String("email", req.Email), zap.Error(txErr))
		return txErr
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   &tenantID,
		Action:     "user_created",
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  c.RealIP(),
	})

	log.Info("User created", zap.String("user_id", user.ID), zap.String("tenant_id", tenantID))
	return respond(c, http.StatusCreated, "User created successfully", user)
}

// GetUser retrieves a user within the principal's scope
func GetUser(c echo.Context) error {
	prometheus.RecordEntityOperation("user", "read")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := scope.Apply(database.GetDB()).First(&user, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "user not found", "")
	}

	return respond(c, http.StatusOK, "", user)
}

// UpdateUser updates a user's profile attributes within scope
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "update")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	var req struct {
		FullName string `json:"full_name,omitempty"`
		Role     string `json:"role,omitempty"`
		Active   *bool  `json:"is_active,omitempty"`
		Password string `json:"password,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid request")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var user model.User
	if result := scope.Apply(database.GetDB()).First(&user, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "user not found", "")
	}

	if user.Role == model.RoleSuperAdmin && model.Role(claims.Role) != model.RoleSuperAdmin {
		return apperror.New(apperror.NotFound, "user not found")
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Role != "" {
		role := model.Role(req.Role)
		if !role.Valid() || role == model.RoleSuperAdmin {
			return apperror.New(apperror.Validation, "unknown role")
		}
		user.Role = role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			return apperror.New(apperror.Validation, "password must be at least 8 characters")
		}
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return apperror.Wrap(apperror.Internal, "user update failed", err)
		}
		user.PasswordHash = string(passwordHash)
	}

	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update user", zap.Error(result.Error))
		return apperror.Wrap(apperror.Internal, "user update failed", result.Error)
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   user.TenantID,
		Action:     "user_updated",
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  c.RealIP(),
	})

	return respond(c, http.StatusOK, "User updated successfully", user)
}

// DeleteUser soft-deletes a user within scope
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "delete")

	claims, _ := middleware.Principal(c)
	scope := authz.ScopeFor(claims)

	defer prometheus.TrackDBOperation("delete")(time.Now())
	var user model.User
	if result := scope.Apply(database.GetDB()).First(&user, "id = ?", c.Param("id")); result.Error != nil {
		return apperror.FromDB(result.Error, "user not found", "")
	}

	if user.ID == claims.UserID {
		return apperror.New(apperror.Validation, "cannot delete your own account")
	}
	if user.Role == model.RoleSuperAdmin && model.Role(claims.Role) != model.RoleSuperAdmin {
		return apperror.New(apperror.NotFound, "user not found")
	}

	if result := database.GetDB().Delete(&user); result.Error != nil {
		log.Error("Failed to delete user", zap.Error(result.Error))
		return apperror.Wrap(apperror.Internal, "user deletion failed", result.Error)
	}

	audit.Record(audit.Entry{
		UserID:     &claims.UserID,
		TenantID:   user.TenantID,
		Action:     "user_deleted",
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  c.RealIP(),
	})

	return respond(c, http.StatusOK, "User deleted successfully", nil)
}
