// server.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/fiberx"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger with config
	logx.SetLevel(logx.ParseLevel(cfg.Server.LogLevel))
	if cfg.IsProd() {
		logx.UseJSON()
	}

	logx.Info("🚀 Starting Hireflow API Server...")
	logx.Infof("Environment: %s", cfg.Environment)

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 4. Start background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)

	// 5. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "Hireflow API",
		DisableStartupMessage: true,
		ErrorHandler:          fiberx.ErrorHandler(cfg.IsDevelopment()),
		BodyLimit:             cfg.Server.BodyLimit,
		IdleTimeout:           120 * time.Second,
	})

	// 6. Global Middleware
	setupMiddleware(app, cfg)

	// 7. Health Check & Info Endpoints
	app.Get("/health", healthCheckHandler(container))
	app.Get("/", infoHandler(cfg))
	app.Get("/api/v1/docs", apiDocsHandler(cfg))

	// 8. Register Routes
	registerRoutes(app, container)

	// 9. 404 Handler
	app.Use(notFoundHandler)

	// 10. Print Route Summary
	printRouteSummary()

	// 11. Start Server with Graceful Shutdown
	startServer(app, cfg, cancel)
}

// ============================================================================
// Setup Functions
// ============================================================================

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	// Panic recovery
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	// Request ID
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return "req-" + uuid.NewString()
		},
	}))

	// CORS
	corsOrigins := "*"
	if len(cfg.Server.CORSOrigins) > 0 {
		corsOrigins = strings.Join(cfg.Server.CORSOrigins, ",")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		AllowCredentials: corsOrigins != "*",
		ExposeHeaders:    "X-Request-ID, Content-Disposition",
	}))

	// Request logger
	logFormat := "${time} | ${status} | ${latency} | ${method} ${path}"
	if cfg.IsDevelopment() {
		logFormat += " | ${ip} | ${reqHeader:X-Request-ID}\n"
	} else {
		logFormat += "\n"
	}

	app.Use(logger.New(logger.Config{
		Format:     logFormat,
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))
}

func registerRoutes(app *fiber.App, container *Container) {
	logx.Info("📝 Registering routes...")

	// Routes: /auth/login, /auth/refresh, /auth/logout, /auth/me
	container.AuthHandlers.RegisterRoutes(app, container.AuthMiddleware)
	logx.Info("✓ Auth routes registered")

	// API Routes Group
	api := app.Group("/api/v1")

	// Users: /api/v1/users/*
	container.UserHandlers.RegisterRoutes(api, container.AuthMiddleware)
	logx.Info("✓ User routes registered")

	// Jobs: /api/v1/jobs/*
	container.JobHandlers.RegisterRoutes(api, container.AuthMiddleware)
	logx.Info("✓ Job routes registered")

	// Candidates: /api/v1/candidates/*, /api/v1/jobs/:id/candidates, /api/v1/talent-pool
	container.CandidateHandlers.RegisterRoutes(api, container.AuthMiddleware)
	logx.Info("✓ Candidate routes registered")

	// Reports: /api/v1/reports/*
	container.ReportHandlers.RegisterRoutes(api, container.AuthMiddleware)
	logx.Info("✓ Report routes registered")

	logx.Info("✅ All routes registered")
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler returns a health check handler
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":      "healthy",
			"service":     "hireflow-api",
			"environment": container.Config.Environment,
			"timestamp":   fmt.Sprintf("%d", time.Now().Unix()),
		}

		// Check database
		if err := container.DB.PingContext(c.Context()); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		// Check Redis
		if container.Redis == nil {
			health["redis"] = "disabled"
		} else if _, err := container.Redis.Ping(c.Context()).Result(); err != nil {
			health["redis"] = "unhealthy"
			health["redis_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		// Check storage (optional - can be slow)
		if c.QueryBool("check_storage", false) {
			if exists, err := container.FileSystem.Exists(c.Context(), ".health-check"); err != nil {
				health["storage"] = "unhealthy"
				health["storage_error"] = err.Error()
			} else {
				health["storage"] = "healthy"
				health["storage_accessible"] = exists
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// infoHandler returns basic API information
func infoHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     "Hireflow API",
			"version":     "1.0.0",
			"description": "Applicant tracking with SLA and visibility-scoped reporting",
			"environment": cfg.Environment,
			"features": []string{
				"Job lifecycle with freeze intervals",
				"SLA calculation (gross, frozen, net days)",
				"Confidential jobs with per-user access",
				"Candidate funnel and talent pool",
				"Period reports with Excel export",
				"Role-based access control (RBAC)",
			},
			"endpoints": fiber.Map{
				"docs":   "/api/v1/docs",
				"health": "/health",
			},
		})
	}
}

// apiDocsHandler returns API documentation
func apiDocsHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"api_version": "v1",
			"base_url":    cfg.Server.BaseURL,
			"endpoints": fiber.Map{
				"authentication": fiber.Map{
					"login":   "POST /auth/login",
					"refresh": "POST /auth/refresh",
					"logout":  "POST /auth/logout",
					"me":      "GET /auth/me",
				},
				"users": fiber.Map{
					"list":   "GET /api/v1/users",
					"create": "POST /api/v1/users",
					"get":    "GET /api/v1/users/:id",
					"scopes": "GET /api/v1/users/scopes?role=",
				},
				"jobs": fiber.Map{
					"list":     "GET /api/v1/jobs?unit=&sector=&status=",
					"create":   "POST /api/v1/jobs",
					"get":      "GET /api/v1/jobs/:id",
					"update":   "PUT /api/v1/jobs/:id",
					"delete":   "DELETE /api/v1/jobs/:id",
					"freeze":   "POST /api/v1/jobs/:id/freeze",
					"unfreeze": "POST /api/v1/jobs/:id/unfreeze",
					"close":    "POST /api/v1/jobs/:id/close",
					"cancel":   "POST /api/v1/jobs/:id/cancel",
					"sla":      "GET /api/v1/jobs/:id/sla?as_of=YYYY-MM-DD",
				},
				"candidates": fiber.Map{
					"by_job":      "GET /api/v1/jobs/:id/candidates",
					"create":      "POST /api/v1/candidates",
					"get":         "GET /api/v1/candidates/:id",
					"delete":      "DELETE /api/v1/candidates/:id",
					"status":      "PATCH /api/v1/candidates/:id/status",
					"interview":   "POST /api/v1/candidates/:id/interview",
					"tech_test":   "POST /api/v1/candidates/:id/tech-test",
					"talent_pool": "GET /api/v1/talent-pool",
				},
				"reports": fiber.Map{
					"snapshot": "GET /api/v1/reports/snapshot?start=YYYY-MM-DD&end=YYYY-MM-DD&unit=&sector=",
					"export":   "GET /api/v1/reports/export?start=YYYY-MM-DD&end=YYYY-MM-DD&unit=&sector=",
				},
			},
			"authentication": fiber.Map{
				"types": []string{"JWT"},
				"headers": fiber.Map{
					"jwt":    "Authorization: Bearer <jwt_token>",
					"cookie": fmt.Sprintf("Cookie: %s=<jwt_token>", cfg.Auth.Cookie.AccessTokenName),
				},
			},
			"config": fiber.Map{
				"jwt_ttl": fiber.Map{
					"access_token":  cfg.Auth.JWT.AccessTokenTTL.String(),
					"refresh_token": cfg.Auth.JWT.RefreshTokenTTL.String(),
				},
				"report_timezone":  cfg.Report.Timezone,
				"report_cache_ttl": cfg.Report.CacheTTL.String(),
				"general_pool_job": cfg.Report.GeneralPoolJobID,
				"archives_exports": cfg.Report.ArchiveExports,
			},
		})
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"message":    "The requested endpoint does not exist. Visit /api/v1/docs for documentation.",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Utility Functions
// ============================================================================

// printRouteSummary prints a summary of registered routes
func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Health: /health")
	logx.Info("   ├─ Info: /")
	logx.Info("   ├─ Docs: /api/v1/docs")
	logx.Info("   ├─ Auth: /auth/*")
	logx.Info("   ├─ Users: /api/v1/users/*")
	logx.Info("   ├─ Jobs: /api/v1/jobs/*")
	logx.Info("   ├─ Candidates: /api/v1/candidates/*, /api/v1/talent-pool")
	logx.Info("   └─ Reports: /api/v1/reports/*")
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App, cfg *config.Config, cancel context.CancelFunc) {
	port := fmt.Sprintf("%d", cfg.Server.Port)

	// Run server in a goroutine
	go func() {
		logx.Info(strings.Repeat("=", 71))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("📚 API Docs: http://localhost:%s/api/v1/docs", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Infof("🔒 Environment: %s", cfg.Environment)
		logx.Info(strings.Repeat("=", 71))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	gracefulShutdown(app, cancel)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for interrupt signal
	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	// Cancel context to stop background services
	cancel()

	// Shutdown the server with timeout
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
