package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/woodline/crm-api/docs"
	"github.com/woodline/crm-api/internal/accounting"
	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/config"
	"github.com/woodline/crm-api/internal/database"
	"github.com/woodline/crm-api/internal/http/handler"
	"github.com/woodline/crm-api/internal/http/middleware"
	"github.com/woodline/crm-api/internal/http/router"
	"github.com/woodline/crm-api/internal/jobs"
	"github.com/woodline/crm-api/internal/logger"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"github.com/woodline/crm-api/internal/storage"
)

// @title Woodline CRM API
// @version 1.0
// @description CRM API for order workflow, leads, and customer management

// @contact.name API Support
// @contact.email support@woodline.no

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "crm-staging.woodline.no"
	case "production":
		docs.SwaggerInfo.Host = "crm-api.woodline.no"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize accounting mirror connection (optional - for payment sync)
	// The connection is read-only and the app continues without it if not configured
	var accountingClient *accounting.Client
	if cfg.Accounting.Enabled {
		accountingClient, err = accounting.NewClient(&cfg.Accounting, log)
		if err != nil {
			// Log error but don't fail - the accounting mirror is optional
			log.Warn("Accounting mirror connection failed, continuing without it",
				zap.Error(err),
			)
		} else if accountingClient != nil {
			log.Info("Accounting mirror connected successfully",
				zap.Int("max_open_conns", cfg.Accounting.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.Accounting.QueryTimeout),
			)
		}
	} else {
		log.Info("Accounting mirror not configured, skipping")
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewOrderStatusHistoryRepository(db)
	contactRepo := repository.NewContactRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	companyRepo := repository.NewClientCompanyRepository(db)
	productRepo := repository.NewProductRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	fileRepo := repository.NewFileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)

	// Initialize services
	// Number sequence service first (order creation depends on it)
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)

	// Board hub: one controller per order type, backed by the shared store
	boardStore := service.NewBoardStore(orderRepo, historyRepo, log)
	boardNotifier := service.NewBoardNotifier(notificationRepo, log)
	boardHub := board.NewHub(boardStore, boardNotifier, cfg.Board.MoveTimeoutDuration(), log)

	orderService := service.NewOrderService(
		orderRepo,
		historyRepo,
		contactRepo,
		leadRepo,
		companyRepo,
		supplierRepo,
		userRepo,
		notificationRepo,
		numberSequenceService,
		boardHub,
		log,
	)
	leadService := service.NewLeadService(leadRepo, notificationRepo, orderService, log)
	contactService := service.NewContactService(contactRepo, companyRepo, log)
	companyService := service.NewClientCompanyService(companyRepo, contactRepo, log)
	productService := service.NewProductService(productRepo, supplierRepo, log)
	supplierService := service.NewSupplierService(supplierRepo, log)
	taskService := service.NewTaskService(taskRepo, orderRepo, leadRepo, notificationRepo, log)
	financeService := service.NewFinanceService(orderRepo, log)
	fileService := service.NewFileService(fileRepo, orderRepo, fileStorage, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	userService := service.NewUserService(userRepo, log)
	paymentSyncService := service.NewPaymentSyncService(accountingClient, orderRepo, notificationRepo, boardHub, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	orderHandler := handler.NewOrderHandler(orderService, log)
	leadHandler := handler.NewLeadHandler(leadService, log)
	contactHandler := handler.NewContactHandler(contactService, log)
	companyHandler := handler.NewClientCompanyHandler(companyService, contactService, log)
	productHandler := handler.NewProductHandler(productService, log)
	supplierHandler := handler.NewSupplierHandler(supplierService, productService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	financeHandler := handler.NewFinanceHandler(financeService, log)
	fileHandler := handler.NewFileHandler(fileService, cfg.Storage.MaxUploadSizeMB, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	userHandler := handler.NewUserHandler(userService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		orderHandler,
		leadHandler,
		contactHandler,
		companyHandler,
		productHandler,
		supplierHandler,
		taskHandler,
		financeHandler,
		fileHandler,
		notificationHandler,
		userHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		// Payment sync only runs when the accounting mirror is available.
		// runOnStartup=true catches up on invoices settled while the app was down.
		if accountingClient != nil {
			if err := jobs.RegisterPaymentSyncJob(
				scheduler,
				paymentSyncService,
				log,
				cfg.Jobs.PaymentSyncSchedule,
				cfg.Accounting.QueryTimeoutDuration(),
				true,
			); err != nil {
				log.Error("Failed to register payment sync job", zap.Error(err))
			}
		}

		staleAfter := time.Duration(cfg.Jobs.StaleOrderAfterDays) * 24 * time.Hour
		if err := jobs.RegisterStaleOrderJob(scheduler, orderService, log, cfg.Jobs.StaleOrderSchedule, staleAfter); err != nil {
			log.Error("Failed to register stale order job", zap.Error(err))
		}

		if err := jobs.RegisterTaskOverdueJob(scheduler, taskService, log, cfg.Jobs.TaskOverdueSchedule); err != nil {
			log.Error("Failed to register task overdue job", zap.Error(err))
		}

		retention := time.Duration(cfg.Jobs.NotificationRetentionDays) * 24 * time.Hour
		if err := jobs.RegisterNotificationPurgeJob(scheduler, notificationService, log, retention); err != nil {
			log.Error("Failed to register notification purge job", zap.Error(err))
		}

		scheduler.Start()
		log.Info("Scheduler started",
			zap.Strings("jobs", scheduler.GetJobNames()),
			zap.Bool("payment_sync", accountingClient != nil),
		)
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close accounting mirror connection if initialized
		if accountingClient != nil {
			if err := accountingClient.Close(); err != nil {
				log.Warn("Error closing accounting mirror connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
