package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaishnavius/scraplink/config"
	"github.com/vaishnavius/scraplink/handlers"
	"github.com/vaishnavius/scraplink/middleware"
	"github.com/vaishnavius/scraplink/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

// buildEstimator wires the strategy picked by ESTIMATOR_MODE. Exactly one is
// active per deployment; there is no per-request switching.
func buildEstimator(cfg *config.Config, market *services.MarketDataCache, store *services.Store) (services.Estimator, error) {
	switch cfg.Estimator.Mode {
	case "local":
		families, err := services.LoadFamilyTable()
		if err != nil {
			return nil, err
		}
		return services.NewLocalEstimator(market, store, store, families), nil
	case "remote":
		timeout := time.Duration(cfg.Estimator.ServiceTimeoutSec) * time.Second
		return services.NewRemoteEstimator(cfg.Estimator.ServiceURL, timeout, store), nil
	default:
		return nil, fmt.Errorf("unknown estimator mode %q", cfg.Estimator.Mode)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Apply pending migrations before anything touches the schema
	if err := runMigrations(cfg.Database.GetDSN()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("migrations applied")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Redis is optional; the API degrades to uncached responses without it
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, continuing without cache: %v", err)
	}
	defer cache.Close()

	store := services.NewStore(db)
	market := services.NewMarketDataCache(store, time.Duration(cfg.Estimator.PriceCacheTTLSec)*time.Second)

	estimator, err := buildEstimator(cfg, market, store)
	if err != nil {
		log.Fatalf("Failed to build estimator: %v", err)
	}
	log.Printf("estimator mode: %s", cfg.Estimator.Mode)

	aggregator := services.NewAggregator(estimator)
	scraper := services.NewIndexScraper(nil)

	estimateHandler := handlers.NewEstimateHandler(estimator, aggregator)
	pricesHandler := handlers.NewPricesHandler(db, cache, market)
	estimationsHandler := handlers.NewEstimationsHandler(db, cache)
	adminHandler := handlers.NewAdminHandler(db, cache, market, scraper)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "ScrapLink estimation API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/estimate", estimateHandler.Estimate)
		v1.POST("/estimate/batch", estimateHandler.EstimateBatch)
		v1.GET("/prices", pricesHandler.GetPrices)
		v1.GET("/prices/:material/history", pricesHandler.GetPriceHistory)
		v1.GET("/prices/:material/trend", pricesHandler.GetTrend)
		v1.GET("/estimations", estimationsHandler.GetEstimations)
		v1.POST("/estimations/:id/actual", estimationsHandler.RecordActual)
		v1.GET("/ws/prices", handlers.PriceStream(cache))

		admin := v1.Group("/admin", middleware.RequireAdminKey(cfg.Admin.APIKey))
		{
			admin.POST("/prices", adminHandler.UpsertPrice)
			admin.POST("/prices/sync", adminHandler.SyncPrices)
		}
	}

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
}
