package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/config"
	"github.com/woodline/crm-api/internal/database"
	"github.com/woodline/crm-api/internal/http/handler"
	"github.com/woodline/crm-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/woodline/crm-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	orderHandler        *handler.OrderHandler
	leadHandler         *handler.LeadHandler
	contactHandler      *handler.ContactHandler
	companyHandler      *handler.ClientCompanyHandler
	productHandler      *handler.ProductHandler
	supplierHandler     *handler.SupplierHandler
	taskHandler         *handler.TaskHandler
	financeHandler      *handler.FinanceHandler
	fileHandler         *handler.FileHandler
	notificationHandler *handler.NotificationHandler
	userHandler         *handler.UserHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	orderHandler *handler.OrderHandler,
	leadHandler *handler.LeadHandler,
	contactHandler *handler.ContactHandler,
	companyHandler *handler.ClientCompanyHandler,
	productHandler *handler.ProductHandler,
	supplierHandler *handler.SupplierHandler,
	taskHandler *handler.TaskHandler,
	financeHandler *handler.FinanceHandler,
	fileHandler *handler.FileHandler,
	notificationHandler *handler.NotificationHandler,
	userHandler *handler.UserHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		orderHandler:        orderHandler,
		leadHandler:         leadHandler,
		contactHandler:      contactHandler,
		companyHandler:      companyHandler,
		productHandler:      productHandler,
		supplierHandler:     supplierHandler,
		taskHandler:         taskHandler,
		financeHandler:      financeHandler,
		fileHandler:         fileHandler,
		notificationHandler: notificationHandler,
		userHandler:         userHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.userHandler.Me)

			// Users
			r.Route("/users", func(r chi.Router) {
				r.Get("/", rt.userHandler.List)
				r.Get("/{id}", rt.userHandler.GetByID)
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Put("/{id}/role", rt.userHandler.UpdateRole)
					r.Post("/{id}/activate", rt.userHandler.Activate)
					r.Post("/{id}/deactivate", rt.userHandler.Deactivate)
				})
			})

			// Orders & board
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", rt.orderHandler.List)
				r.Post("/", rt.orderHandler.Create)
				r.Get("/board", rt.orderHandler.Board)
				r.Get("/statuses", rt.orderHandler.StatusCatalog)
				r.Get("/{id}", rt.orderHandler.GetByID)
				r.Put("/{id}", rt.orderHandler.Update)
				r.Delete("/{id}", rt.orderHandler.Delete)
				r.Post("/{id}/move", rt.orderHandler.Move)
				r.Get("/{id}/history", rt.orderHandler.StatusHistory)
				r.Post("/{id}/payments", rt.orderHandler.RecordPayment)
				r.Get("/{id}/files", rt.fileHandler.ListByOrder)
				r.Post("/{id}/files", rt.fileHandler.Upload)
			})

			// Leads
			r.Route("/leads", func(r chi.Router) {
				r.Get("/", rt.leadHandler.List)
				r.Post("/", rt.leadHandler.Create)
				r.Get("/stats", rt.leadHandler.CountByStatus)
				r.Get("/{id}", rt.leadHandler.GetByID)
				r.Put("/{id}", rt.leadHandler.Update)
				r.Delete("/{id}", rt.leadHandler.Delete)
				r.Post("/{id}/convert", rt.leadHandler.Convert)
			})

			// Contacts
			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", rt.contactHandler.List)
				r.Post("/", rt.contactHandler.Create)
				r.Get("/search", rt.contactHandler.Search)
				r.Get("/{id}", rt.contactHandler.GetByID)
				r.Put("/{id}", rt.contactHandler.Update)
				r.Delete("/{id}", rt.contactHandler.Delete)
			})

			// Client companies
			r.Route("/client-companies", func(r chi.Router) {
				r.Get("/", rt.companyHandler.List)
				r.Post("/", rt.companyHandler.Create)
				r.Get("/{id}", rt.companyHandler.GetByID)
				r.Put("/{id}", rt.companyHandler.Update)
				r.Delete("/{id}", rt.companyHandler.Delete)
				r.Get("/{id}/contacts", rt.companyHandler.ListContacts)
			})

			// Products
			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.productHandler.List)
				r.Post("/", rt.productHandler.Create)
				r.Get("/{id}", rt.productHandler.GetByID)
				r.Put("/{id}", rt.productHandler.Update)
				r.Delete("/{id}", rt.productHandler.Delete)
			})

			// Suppliers
			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", rt.supplierHandler.List)
				r.Post("/", rt.supplierHandler.Create)
				r.Get("/search", rt.supplierHandler.Search)
				r.Get("/{id}", rt.supplierHandler.GetByID)
				r.Put("/{id}", rt.supplierHandler.Update)
				r.Delete("/{id}", rt.supplierHandler.Delete)
				r.Get("/{id}/products", rt.supplierHandler.ListProducts)
			})

			// Tasks
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", rt.taskHandler.List)
				r.Post("/", rt.taskHandler.Create)
				r.Get("/{id}", rt.taskHandler.GetByID)
				r.Put("/{id}", rt.taskHandler.Update)
				r.Delete("/{id}", rt.taskHandler.Delete)
			})

			// Finance
			r.Get("/finance/summary", rt.financeHandler.PaymentSummary)

			// Files
			r.Route("/files", func(r chi.Router) {
				r.Get("/{id}/download", rt.fileHandler.Download)
				r.Delete("/{id}", rt.fileHandler.Delete)
			})

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notificationHandler.ListMine)
				r.Post("/", rt.notificationHandler.Create)
				r.Get("/unread-count", rt.notificationHandler.CountUnread)
				r.Post("/read-all", rt.notificationHandler.MarkAllAsRead)
				r.Post("/{id}/read", rt.notificationHandler.MarkAsRead)
			})
		})
	})

	return r
}
