package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mission-kpi-system/handlers"
	"mission-kpi-system/middleware"
	"mission-kpi-system/models"
	"mission-kpi-system/services"
	"mission-kpi-system/utils"
	"mission-kpi-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "mission-kpi-system",
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Retry-After, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	if err := utils.InitR2(cfg); err != nil {
		log.Fatal("failed to initialize R2 client: ", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.Mission{},
		&models.Player{},
		&models.AssignedKPI{},
	); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	registryService := services.NewRegistryService(db)
	kpiEngine := services.NewKPIEngineService(db)
	aggregatorService := services.NewAggregatorService(db)
	reportService := services.NewReportService(db, aggregatorService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Continuous ledger audit: stored running totals vs. recomputed sums
	auditor := workers.NewLedgerAuditor(db)
	go workers.PollLedger(ctx, auditor, cfg.AuditInterval)

	// Export report snapshots for freshly closed missions
	reportService.StartReportScheduler()

	// ✅ Setup routes — enforced Gateway auth on everything
	handlers.SetupMissionRoutes(app, registryService)
	handlers.SetupKPIRoutes(app, kpiEngine, aggregatorService)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Printf("✅ Ledger audit polling running (every %s)", cfg.AuditInterval)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come through the Gateway")
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
