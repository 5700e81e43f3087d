// Package server assembles the gin engine serving the moneyflow API.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"

	_ "moneyflow/internal/docs" // swagger docs
	"moneyflow/internal/handlers"
	"moneyflow/internal/middleware"
	"moneyflow/internal/services"
)

// Services bundles the ledger services the router exposes.
type Services struct {
	Accounts     services.AccountServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Transfers    services.TransferServicer
	Reports      services.ReportServicer
	Audit        services.AuditServicer
}

// Options tunes the router. A nil Limiter disables rate limiting.
type Options struct {
	AllowedOrigins []string
	AdminAPIKey    string
	Limiter        *limiter.Limiter
	HealthCheck    func(c *gin.Context) error
}

// NewRouter builds the HTTP router with all middleware and routes.
func NewRouter(svc Services, opts Options) *gin.Engine {
	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Transactions, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	transferHandler := handlers.NewTransferHandler(svc.Transfers, svc.Audit)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	adminHandler := handlers.NewAdminHandler(svc.Accounts, svc.Categories, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		if opts.HealthCheck != nil {
			if err := opts.HealthCheck(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	if opts.Limiter != nil {
		v1.Use(middleware.RateLimit(opts.Limiter))
	}

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", accountHandler.ListAccountTransactions)
	accounts.GET("/:id/reconcile", accountHandler.ReconcileAccount)

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	v1.POST("/transfers", transferHandler.CreateTransfer)

	v1.GET("/dashboard", reportHandler.Dashboard)
	reports := v1.Group("/reports")
	reports.GET("/categories", reportHandler.CategoryBreakdown)
	reports.GET("/trend", reportHandler.Trend)
	reports.GET("/export", reportHandler.Export)

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminKey(opts.AdminAPIKey))
	admin.POST("/seed", adminHandler.Seed)
	admin.GET("/reconcile", adminHandler.Reconcile)

	return router
}
