package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fnh-backend/internal/auth"
	"fnh-backend/internal/cache"
	"fnh-backend/internal/config"
	"fnh-backend/internal/database"
	"fnh-backend/internal/db"
	"fnh-backend/internal/handlers"
	"fnh-backend/internal/health"
	h "fnh-backend/internal/http"
	"fnh-backend/internal/middleware"
	"fnh-backend/internal/monitoring"
	"fnh-backend/internal/repositories"
	"fnh-backend/internal/services"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	monitoringPort := flag.Int("monitoring-port", 9090, "Monitoring dashboard port")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Connect to Postgres
	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (hot paths hit Postgres directly)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations
	// This automatically creates all required tables on startup
	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize health checker
	healthChecker := health.NewHealthChecker(pool)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(pool)
	totpRepo := repositories.NewTOTPRepository(pool)
	patientRepo := repositories.NewPatientRepository(pool)
	accountRepo := repositories.NewAccountRepository(pool)
	chargeRepo := repositories.NewChargeRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	allocationRepo := repositories.NewAllocationRepository(pool)
	cashMovementRepo := repositories.NewCashMovementRepository(pool)
	shiftRepo := repositories.NewShiftRepository(pool)
	stockRepo := repositories.NewStockRepository(pool)
	medicineSaleRepo := repositories.NewMedicineSaleRepository(pool)
	admissionRepo := repositories.NewAdmissionRepository(pool)
	pathologyRepo := repositories.NewPathologyRepository(pool)
	regCounterRepo := repositories.NewRegCounterRepository(pool)
	auditLogRepo := repositories.NewAuditLogRepository(pool)
	apiLogRepo := repositories.NewAPILogRepository(pool)

	// Start monitoring dashboard server in background
	go monitoring.NewMonitoringServer(pool, apiLogRepo, *monitoringPort).Start()

	// Initialize services
	auditService := services.NewAuditService(auditLogRepo)
	userService := services.NewUserService(userRepo, jwtManager)
	totpService := services.NewTOTPService(userRepo, totpRepo)
	billingService := services.NewBillingService(
		database.NewPool(pool),
		patientRepo,
		admissionRepo,
		pathologyRepo,
		chargeRepo,
		paymentRepo,
		allocationRepo,
		accountRepo,
		shiftRepo,
		cashMovementRepo,
		regCounterRepo,
		auditService,
	)
	pharmacyService := services.NewPharmacyService(billingService, stockRepo, medicineSaleRepo)
	shiftService := services.NewShiftService(shiftRepo, cashMovementRepo, auditService)
	accountService := services.NewAccountService(patientRepo, accountRepo, chargeRepo, paymentRepo)
	reportService := services.NewReportService(accountService, shiftService, cfg)

	// Nightly export of the daily cash report to the backup bucket
	reportService.ScheduleNightlyExport(context.Background())

	// Warm the dashboard snapshot so the first request after boot is fast
	cache.PreWarmKey(cache.DashboardKey, func(ctx context.Context) ([]byte, error) {
		snapshot, err := reportService.Dashboard(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(snapshot)
	}, cache.DashboardTTL)

	metricsCollector := services.NewMetricsCollector(pool)
	metricsCollector.Start()
	defer metricsCollector.Stop()

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)
	apiLoggingMiddleware := middleware.NewAPILoggingMiddleware(apiLogRepo)
	defer apiLoggingMiddleware.Close()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, totpService, auditService)
	userHandler := handlers.NewUserHandler(userService)
	totpHandler := handlers.NewTOTPHandler(totpService, userRepo)
	admissionHandler := handlers.NewAdmissionHandler(billingService)
	pathologyHandler := handlers.NewPathologyHandler(billingService)
	pharmacyHandler := handlers.NewPharmacyHandler(pharmacyService)
	shiftHandler := handlers.NewShiftHandler(shiftService)
	accountHandler := handlers.NewAccountHandler(accountService)
	reportHandler := handlers.NewReportHandler(reportService)
	auditLogHandler := handlers.NewAuditLogHandler(auditService)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	router := h.NewRouter(
		authHandler,
		userHandler,
		totpHandler,
		admissionHandler,
		pathologyHandler,
		pharmacyHandler,
		shiftHandler,
		accountHandler,
		reportHandler,
		auditLogHandler,
		healthHandler,
		authMiddleware,
	)

	// Wrap with panic recovery, metrics, request logging and CORS
	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			apiLoggingMiddleware.Handler(
				corsMiddleware(router))))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
