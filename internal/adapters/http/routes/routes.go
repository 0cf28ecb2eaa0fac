package routes

import (
	"landstede-printlab/internal/adapters/http/handlers"
	"landstede-printlab/internal/adapters/http/middleware"
	"landstede-printlab/internal/adapters/persistence/repositories"
	"landstede-printlab/internal/config"
	"landstede-printlab/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	printerRepo := repositories.NewPrinterRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	creditRepo := repositories.NewCreditRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, creditRepo)
	queueService := services.NewQueueService(jobRepo, printerRepo)
	printerService := services.NewPrinterService(printerRepo, queueService)
	creditService := services.NewCreditService(creditRepo, userRepo, jobRepo)
	jobService := services.NewJobService(db, jobRepo, userRepo, creditRepo, queueService)
	dashboardService := services.NewDashboardService(db)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, userService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	printerHandler := handlers.NewPrinterHandler(printerService, queueService)
	jobHandler := handlers.NewJobHandler(jobService, queueService)
	creditHandler := handlers.NewCreditHandler(creditService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public, stricter rate limit)
	authRoutes := apiV1.Group("/auth", middleware.NoCacheHeaders())
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Printer routes (authenticated)
	printerRoutes := apiV1.Group("/printers")
	printerRoutes.Use(middleware.AuthMiddleware(cfg))
	setupPrinterRoutes(printerRoutes, printerHandler)

	// Job routes (authenticated)
	jobRoutes := apiV1.Group("/jobs")
	jobRoutes.Use(middleware.AuthMiddleware(cfg))
	setupJobRoutes(jobRoutes, jobHandler)

	// Credit routes (authenticated)
	creditRoutes := apiV1.Group("/credits")
	creditRoutes.Use(middleware.AuthMiddleware(cfg))
	setupCreditRoutes(creditRoutes, creditHandler)

	// Profile routes (authenticated)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	setupUserRoutes(userRoutes, userHandler)

	// Admin routes
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	setupAdminRoutes(adminRoutes, printerHandler, jobHandler, creditHandler, userHandler, dashboardHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (5 req/min/IP against brute force)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupPrinterRoutes configures printer registry routes (authenticated users)
func setupPrinterRoutes(router fiber.Router, handler *handlers.PrinterHandler) {
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Get("/:id/queue", handler.Queue)
}

// setupJobRoutes configures job routes (authenticated users)
func setupJobRoutes(router fiber.Router, handler *handlers.JobHandler) {
	router.Post("/", handler.Submit)
	router.Get("/mine", handler.ListMine)
	router.Get("/:id", handler.Get)
	router.Get("/:id/position", handler.Position)
	router.Post("/:id/cancel", handler.Cancel)
}

// setupCreditRoutes configures credit ledger routes (authenticated users)
func setupCreditRoutes(router fiber.Router, handler *handlers.CreditHandler) {
	router.Get("/balance", handler.Balance)
	router.Get("/history", handler.History)
	router.Get("/packs", handler.Packs)
	router.Post("/purchase", handler.Purchase)
}

// setupUserRoutes configures profile routes (authenticated users)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Put("/me", handler.UpdateProfile)
	router.Put("/me/password", handler.ChangePassword)
}

// setupAdminRoutes configures admin-only routes
func setupAdminRoutes(
	router fiber.Router,
	printerHandler *handlers.PrinterHandler,
	jobHandler *handlers.JobHandler,
	creditHandler *handlers.CreditHandler,
	userHandler *handlers.UserHandler,
	dashboardHandler *handlers.DashboardHandler,
) {
	// Dashboard
	router.Get("/dashboard", dashboardHandler.AdminDashboard)

	// Printer management
	router.Post("/printers", printerHandler.Create)
	router.Put("/printers/:id", printerHandler.Update)
	router.Patch("/printers/:id/status", printerHandler.SetStatus)
	router.Get("/printers/:id/stats", printerHandler.Stats)
	router.Delete("/printers/:id", printerHandler.Delete)

	// Job lifecycle
	router.Get("/jobs", jobHandler.ListAll)
	router.Post("/jobs/:id/approve", jobHandler.Approve)
	router.Post("/jobs/:id/start", jobHandler.Start)
	router.Post("/jobs/:id/complete", jobHandler.Complete)
	router.Post("/jobs/:id/fail", jobHandler.Fail)
	router.Patch("/jobs/:id/priority", jobHandler.SetPriority)
	router.Post("/jobs/:id/notes", jobHandler.AppendNote)

	// User management
	router.Get("/users", userHandler.List)
	router.Get("/users/:id", userHandler.Get)
	router.Patch("/users/:id/role", userHandler.SetRole)
	router.Delete("/users/:id", userHandler.Deactivate)

	// Credit management
	router.Get("/users/:id/credits", creditHandler.UserHistory)
	router.Post("/users/:id/credits", creditHandler.Adjust)
}
