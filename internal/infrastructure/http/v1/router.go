// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"posledger/internal/infrastructure/http/v1/handlers"
	"posledger/internal/infrastructure/http/v1/middleware"
	"posledger/internal/infrastructure/metrics"
	"posledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Registrar registers sales
	Registrar handlers.SaleRegistrar

	// Queries answers history and report requests
	Queries handlers.SaleQueries

	// Dashboard builds the summary
	Dashboard handlers.SummaryProvider

	// Storage names the back end for health output
	Storage string

	// HealthChecks are run by /health/ready
	HealthChecks map[string]handlers.HealthCheck

	// Idempotency enables X-Idempotency-Key on sale registration when non-nil
	Idempotency middleware.IdempotencyStore

	// Audit serves GET /sales/:id/audit when non-nil
	Audit handlers.SaleAuditTrail

	// Metrics adds request counting and GET /metrics when non-nil
	Metrics *metrics.Metrics
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	healthHandler := handlers.NewHealthHandler(cfg.Storage, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	saleHandler := handlers.NewSaleHandler(base, cfg.Registrar, cfg.Queries)
	dashboardHandler := handlers.NewDashboardHandler(base, cfg.Dashboard)

	v1 := router.Group("/api/v1")
	{
		salesGroup := v1.Group("/sales")
		create := []gin.HandlerFunc{saleHandler.Create}
		if cfg.Idempotency != nil {
			create = append([]gin.HandlerFunc{middleware.Idempotency(cfg.Idempotency)}, create...)
		}
		salesGroup.POST("", create...)
		salesGroup.GET("/history", saleHandler.History)
		salesGroup.GET("/report", saleHandler.Report)
		if cfg.Audit != nil {
			salesGroup.GET("/:id/audit", handlers.NewAuditHandler(base, cfg.Audit).SaleAudit)
		}

		v1.GET("/dashboard/summary", dashboardHandler.Summary)
	}

	return router
}
