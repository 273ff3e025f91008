package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"saas-platform/internal/apperror"
	"saas-platform/internal/audit"
	"saas-platform/internal/model"
	"saas-platform/pkg/database"
	"saas-platform/pkg/jwtutil"
	"saas-platform/pkg/logger"
	"saas-platform/prometheus"
)

// ensureTenantActive blocks principals of suspended tenants from
// acquiring new tokens, at login and at refresh alike. Already issued
// access tokens keep working until their expiry.
func ensureTenantActive(tenant *model.Tenant) error {
	if tenant.Status == model.TenantSuspended {
		return apperror.New(apperror.Unauthorized, "tenant is suspended")
	}
	return nil
}

// RegisterTenant provisions a tenant together with its admin user.
// Both rows are created in one transaction: any failure after the
// subdomain check rolls everything back, so a partial tenant/admin pair
// never exists.
func RegisterTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterTenantCounter.Inc()

	// Parse request
	var req struct {
		TenantName    string `json:"tenantName"`
		Subdomain     string `json:"subdomain"`
		Plan          string `json:"plan,omitempty"`
		AdminEmail    string `json:"adminEmail"`
		AdminPassword string `json:"adminPassword"`
		AdminFullName string `json:"adminFullName"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return apperror.New(apperror.Validation, "invalid request")
	}

	if req.TenantName == "" || req.Subdomain == "" || req.AdminEmail == "" ||
		req.AdminPassword == "" || req.AdminFullName == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return apperror.New(apperror.Validation, "missing required fields")
	}

	if len(req.AdminPassword) < 8 {
		prometheus.RecordAuthError("weak_password")
		return apperror.New(apperror.Validation, "password must be at least 8 characters")
	}

	plan := model.PlanFree
	if req.Plan != "" {
		plan = model.SubscriptionPlan(req.Plan)
		if !plan.Valid() {
			return apperror.New(apperror.Validation, "unknown subscription plan")
		}
	}

	// Hash the admin password before opening the transaction
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return apperror.Wrap(apperror.Internal, "registration failed", err)
	}

	limits := plan.Limits()
	tenant := model.Tenant{
		Name:        req.TenantName,
		Subdomain:   req.Subdomain,
		Status:      model.TenantActive,
		Plan:        plan,
		MaxUsers:    limits.MaxUsers,
		MaxProjects: limits.MaxProjects,
	}
	var adminUser model.User

	defer prometheus.TrackDBOperation("insert")(time.Now())
	txErr := database.GetDB().Transaction(func(tx *gorm.DB) error {
		// Verify subdomain uniqueness inside the transaction
		var existing model.Tenant
		if result := tx.Where("subdomain = ?", req.Subdomain).First(&existing); result.Error == nil {
			return apperror.New(apperror.Conflict, "subdomain already exists")
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperror.Wrap(apperror.Internal, "registration failed", result.Error)
		}

		if result := tx.Create(&tenant); result.Error != nil {
			// A concurrent registration can still win the race; the
			// unique index reports it as a conflict here.
			return apperror.FromDB(result.Error, "tenant not found", "subdomain already exists")
		}

		adminUser = model.User{
			TenantID:     &tenant.ID,
			Email:        req.AdminEmail,
			PasswordHash: string(passwordHash),
			FullName:     req.AdminFullName,
			Role:         model.RoleTenantAdmin,
			Active:       true,
		}
		if result := tx.Create(&adminUser); result.Error != nil {
			return apperror.FromDB(result.Error, "user not found", "email already registered")
		}

		return nil
	})
	if txErr != nil {
		log.Error("Tenant registration failed",
			zap.String("subdomain", req.Subdomain),
			zap.Error(txErr))
		return txErr
	}

	audit.Record(audit.Entry{
		TenantID:   &tenant.ID,
		UserID:     &adminUser.ID,
		Action:     "tenant_registered",
		EntityType: "tenant",
		EntityID:   tenant.ID,
		IPAddress:  c.RealIP(),
	})

	log.Info("Tenant registered",
		zap.String("tenant_id", tenant.ID),
		zap.String("subdomain", tenant.Subdomain))

	return respond(c, http.StatusCreated, "Tenant registered successfully", echo.Map{
		"tenantId":  tenant.ID,
		"subdomain": tenant.Subdomain,
		"adminUser": echo.Map{
			"id":       adminUser.ID,
			"email":    adminUser.Email,
			"fullName": adminUser.FullName,
			"role":     adminUser.Role,
		},
	})
}

// Login authenticates a user and issues an access/refresh token pair
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Subdomain string `json:"subdomain,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return apperror.New(apperror.Validation, "invalid request")
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return apperror.New(apperror.Validation, "email and password are required")
	}

	// Find user, optionally narrowed to the tenant named by subdomain.
	// Email uniqueness is per tenant, so the subdomain disambiguates a
	// user holding accounts in several tenants.
	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().Where("email = ?", req.Email)
	if req.Subdomain != "" {
		var tenant model.Tenant
		if result := database.GetDB().Where("subdomain = ?", req.Subdomain).First(&tenant); result.Error != nil {
			log.Warn("Login against unknown subdomain", zap.String("subdomain", req.Subdomain))
			prometheus.RecordAuthError("login_failure")
			return apperror.New(apperror.Unauthenticated, "invalid credentials")
		}
		query = query.Where("tenant_id = ?", tenant.ID)
	}

	var user model.User
	if result := query.First(&user); result.Error != nil {
		log.Warn("Login for unknown user", zap.String("email", req.Email))
		prometheus.RecordAuthError("login_failure")
		return apperror.New(apperror.Unauthenticated, "invalid credentials")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("login_failure")
		audit.Record(audit.Entry{
			TenantID:   user.TenantID,
			UserID:     &user.ID,
			Action:     "login_failed",
			EntityType: "user",
			EntityID:   user.ID,
			IPAddress:  c.RealIP(),
		})
		return apperror.New(apperror.Unauthenticated, "invalid credentials")
	}

	if !user.Active {
		prometheus.RecordAuthError("inactive_user")
		return apperror.New(apperror.Unauthenticated, "invalid credentials")
	}

	// A suspended tenant blocks every principal scoped to it
	var tenantInfo echo.Map
	if user.TenantID != nil {
		var tenant model.Tenant
		if result := database.GetDB().First(&tenant, "id = ?", *user.TenantID); result.Error != nil {
			return apperror.FromDB(result.Error, "tenant not found", "")
		}
		if err := ensureTenantActive(&tenant); err != nil {
			prometheus.RecordAuthError("tenant_suspended")
			return err
		}
		tenantInfo = echo.Map{
			"id":        tenant.ID,
			"name":      tenant.Name,
			"subdomain": tenant.Subdomain,
		}
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.TenantID, string(user.Role))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return apperror.Wrap(apperror.Internal, "token error", err)
	}

	refresh := model.RefreshToken{
		UserID:    user.ID,
		TenantID:  user.TenantID,
		ExpiresAt: time.Now().Add(jwtutil.RefreshTokenTTL()),
	}
	if result := database.GetDB().Create(&refresh); result.Error != nil {
		log.Error("Failed to create refresh token", zap.Error(result.Error))
		return apperror.Wrap(apperror.Internal, "token error", result.Error)
	}

	audit.Record(audit.Entry{
		TenantID:   user.TenantID,
		UserID:     &user.ID,
		Action:     "login",
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  c.RealIP(),
	})

	log.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))

	data := echo.Map{
		"token":        token,
		"refreshToken": refresh.Token,
		"user": echo.Map{
			"id":       user.ID,
			"email":    user.Email,
			"fullName": user.FullName,
			"role":     user.Role,
		},
	}
	if tenantInfo != nil {
		data["tenant"] = tenantInfo
	}

	return respond(c, http.StatusOK, "", data)
}

// Refresh exchanges a valid refresh token for a new access/refresh
// pair. Refresh tokens are single use: the presented token is revoked
// as part of the rotation.
func Refresh(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RefreshCounter.Inc()

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return apperror.New(apperror.Validation, "invalid request")
	}
	if req.RefreshToken == "" {
		return apperror.New(apperror.Validation, "refreshToken is required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var stored model.RefreshToken
	if result := database.GetDB().Where("token = ?", req.RefreshToken).First(&stored); result.Error != nil {
		prometheus.RecordAuthError("invalid_refresh_token")
		return apperror.New(apperror.Unauthenticated, "invalid refresh token")
	}

	if !stored.IsValid() {
		log.Warn("Expired or revoked refresh token presented", zap.String("token_id", stored.ID))
		prometheus.RecordAuthError("invalid_refresh_token")
		return apperror.New(apperror.Unauthenticated, "invalid refresh token")
	}

	var user model.User
	if result := database.GetDB().First(&user, "id = ?", stored.UserID); result.Error != nil || !user.Active {
		prometheus.RecordAuthError("invalid_refresh_token")
		return apperror.New(apperror.Unauthenticated, "invalid refresh token")
	}

	// Rotation must not outlive a suspension: a suspended tenant's
	// users would otherwise hold a perpetually renewable session
	if user.TenantID != nil {
		var tenant model.Tenant
		if result := database.GetDB().First(&tenant, "id = ?", *user.TenantID); result.Error != nil {
			return apperror.FromDB(result.Error, "tenant not found", "")
		}
		if err := ensureTenantActive(&tenant); err != nil {
			prometheus.RecordAuthError("tenant_suspended")
			return err
		}
	}

	var rotated model.RefreshToken
	txErr := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&stored).Update("revoked", true).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "token error", err)
		}
		rotated = model.RefreshToken{
			UserID:    user.ID,
			TenantID:  user.TenantID,
			ExpiresAt: time.Now().Add(jwtutil.RefreshTokenTTL()),
		}
		if err := tx.Create(&rotated).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "token error", err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.TenantID, string(user.Role))
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return apperror.Wrap(apperror.Internal, "token error", err)
	}

	audit.Record(audit.Entry{
		TenantID:   user.TenantID,
		UserID:     &user.ID,
		Action:     "token_refreshed",
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  c.RealIP(),
	})

	return respond(c, http.StatusOK, "", echo.Map{
		"token":        token,
		"refreshToken": rotated.Token,
	})
}
