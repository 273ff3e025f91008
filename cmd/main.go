package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"saas-platform/internal/audit"
	"saas-platform/internal/authz"
	"saas-platform/internal/handler"
	"saas-platform/internal/middleware"
	"saas-platform/internal/model"
	"saas-platform/pkg/config"
	"saas-platform/pkg/database"
	"saas-platform/pkg/jwtutil"
	"saas-platform/pkg/logger"
	"saas-platform/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting SaaS platform service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize audit recorder
	audit.Init(&audit.GormStore{DB: database.GetDB()}, log, cfg.Audit.BufferSize)
	log.Info("Audit recorder initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Seed the super-admin principal when configured and absent
	if err := bootstrapSuperAdmin(cfg, log); err != nil {
		log.Fatal("Failed to bootstrap super admin", zap.Error(err))
	}

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/api/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/register-tenant", handler.RegisterTenant)
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.Refresh)

	// API routes - all require authentication; each route declares its
	// action and the shared gate checks the policy table
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Tenant management
	tenants := api.Group("/tenants")
	tenants.GET("", handler.ListTenants, middleware.Authorize(authz.TenantList))
	tenants.POST("", handler.CreateTenant, middleware.Authorize(authz.TenantCreate))
	tenants.GET("/:id", handler.GetTenant, middleware.Authorize(authz.TenantRead))
	tenants.PUT("/:id", handler.UpdateTenant, middleware.Authorize(authz.TenantUpdate))
	tenants.DELETE("/:id", handler.DeleteTenant, middleware.Authorize(authz.TenantDelete))

	// User management
	users := api.Group("/users")
	users.GET("", handler.ListUsers, middleware.Authorize(authz.UserList))
	users.POST("", handler.CreateUser, middleware.Authorize(authz.UserCreate))
	users.GET("/:id", handler.GetUser, middleware.Authorize(authz.UserRead))
	users.PUT("/:id", handler.UpdateUser, middleware.Authorize(authz.UserUpdate))
	users.DELETE("/:id", handler.DeleteUser, middleware.Authorize(authz.UserDelete))

	// Project management
	projects := api.Group("/projects")
	projects.GET("", handler.ListProjects, middleware.Authorize(authz.ProjectList))
	projects.POST("", handler.CreateProject, middleware.Authorize(authz.ProjectCreate))
	projects.GET("/:id", handler.GetProject, middleware.Authorize(authz.ProjectRead))
	projects.PUT("/:id", handler.UpdateProject, middleware.Authorize(authz.ProjectUpdate))
	projects.DELETE("/:id", handler.DeleteProject, middleware.Authorize(authz.ProjectDelete))

	// Task management
	tasks := api.Group("/tasks")
	tasks.GET("", handler.ListTasks, middleware.Authorize(authz.TaskList))
	tasks.POST("", handler.CreateTask, middleware.Authorize(authz.TaskCreate))
	tasks.GET("/:id", handler.GetTask, middleware.Authorize(authz.TaskRead))
	tasks.PUT("/:id", handler.UpdateTask, middleware.Authorize(authz.TaskUpdate))
	tasks.DELETE("/:id", handler.DeleteTask, middleware.Authorize(authz.TaskDelete))

	// Audit log
	api.GET("/audit-logs", handler.ListAuditLogs, middleware.Authorize(authz.AuditRead))

	// Start server
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			log.Info("Server stopped", zap.Error(err))
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}

	// Drain outstanding audit entries before exit
	audit.Close()
	log.Info("Server stopped")
}

// bootstrapSuperAdmin seeds a platform administrator (tenant_id null)
// when credentials are configured and none exists yet.
func bootstrapSuperAdmin(cfg *config.Config, log *zap.Logger) error {
	if cfg.Bootstrap.SuperAdminEmail == "" || cfg.Bootstrap.SuperAdminPassword == "" {
		return nil
	}

	var count int64
	if result := database.GetDB().Model(&model.User{}).
		Where("role = ?", model.RoleSuperAdmin).Count(&count); result.Error != nil {
		return result.Error
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Bootstrap.SuperAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		TenantID:     nil,
		Email:        cfg.Bootstrap.SuperAdminEmail,
		PasswordHash: string(passwordHash),
		FullName:     cfg.Bootstrap.SuperAdminName,
		Role:         model.RoleSuperAdmin,
		Active:       true,
	}
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		log.Info("Super admin bootstrapped", zap.String("email", admin.Email))
		return nil
	})
}
