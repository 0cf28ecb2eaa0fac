package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"landstede-printlab/internal/adapters/http/middleware"
	"landstede-printlab/internal/adapters/http/routes"
	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/adapters/persistence/repositories"
	"landstede-printlab/internal/config"
	"landstede-printlab/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "landstede-printlab/docs" // Swagger docs
)

// @title Landstede PrintLab API
// @version 1.0
// @description 3D-printcentrum reserveringssysteem van Landstede - printers, wachtrijen en credits
// @termsOfService http://swagger.io/terms/

// @contact.name PrintLab Beheer
// @contact.email printlab@landstede.nl

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host printlab.landstede.nl
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed admin account and printer park
	if err := config.SeedMasterData(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed master data: %v", err)
	}

	// Nightly refresh-token purge (03:30)
	maintenanceService := services.NewMaintenanceService(repositories.NewRefreshTokenRepository(db))
	maintenanceService.Start()
	defer maintenanceService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Landstede PrintLab API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
