package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"moneyflow/internal/config"
	"moneyflow/internal/database"
	"moneyflow/internal/events"
	"moneyflow/internal/logger"
	"moneyflow/internal/middleware"
	"moneyflow/internal/server"
	"moneyflow/internal/services"
	"moneyflow/internal/validator"
)

// @title           Moneyflow API
// @version         1.0
// @description     Moneyflow is a personal finance ledger: accounts, categories, transactions, transfers and reports.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-API-Key

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if appConfig.DBAutoMigrate {
		if err := dbManager.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	validator.Register()

	publisher, err := newPublisher(appConfig)
	if err != nil {
		return err
	}
	defer publisher.Close()

	var rateLimiter *limiter.Limiter
	if appConfig.RateLimit != "" {
		rateLimiter, err = middleware.NewLimiter(appConfig.RateLimit)
		if err != nil {
			return err
		}
	}

	db := dbManager.DB()
	guard := services.NewLedgerGuard(appConfig.LedgerLockTimeout)
	policy := services.NewBalancePolicy(appConfig.EnforceBalanceLimits)

	router := server.NewRouter(server.Services{
		Accounts:     services.NewAccountService(db, guard, appConfig.DefaultCurrency),
		Categories:   services.NewCategoryService(db, guard),
		Transactions: services.NewTransactionService(db, guard, policy),
		Transfers:    services.NewTransferService(db, guard, policy),
		Reports:      services.NewReportService(db, guard),
		Audit:        services.NewAuditService(db, publisher),
	}, server.Options{
		AllowedOrigins: appConfig.CORSAllowedOrigins,
		AdminAPIKey:    appConfig.AdminAPIKey,
		Limiter:        rateLimiter,
		HealthCheck: func(c *gin.Context) error {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			return dbManager.Ping(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Moneyflow server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	logger.Get().Infow("Publishing ledger events", "exchange", cfg.AMQPExchange)
	return p, nil
}
