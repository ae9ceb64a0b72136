package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"sqlcamp/datagen/anomaly"
	"sqlcamp/datagen/config"
	"sqlcamp/datagen/database"
	"sqlcamp/datagen/generator"
	"sqlcamp/datagen/handlers"
	"sqlcamp/datagen/logger"
	"sqlcamp/datagen/middleware"
	"sqlcamp/datagen/profiles"
	"sqlcamp/datagen/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	client, err := database.Open(cfg.Driver, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatalw("failed to open database", "driver", cfg.Driver, "error", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureSchema(ctx, client); err != nil {
		cancel()
		zlog.Fatalw("failed to ensure schema", "error", err)
	}
	cancel()

	registry := profiles.NewRegistry()
	datasetStore := store.NewDatasetStore(client, zlog, cfg.CopyThreshold)
	anomalyStore := store.NewAnomalyStore(client)
	assembler := generator.NewAssembler(registry, datasetStore, zlog, generator.Options{
		UserCount:        cfg.UserCount,
		SignupWindowDays: cfg.SignupWindowDays,
		SessionsMin:      cfg.SessionsMin,
		SessionsMax:      cfg.SessionsMax,
		OrderProbability: cfg.OrderProbability,
		Seed:             cfg.Seed,
	})
	injector := anomaly.NewInjector(client, registry, anomalyStore, zlog, cfg.Seed)

	h := handlers.NewDatasetHandlers(assembler, injector, anomalyStore, datasetStore, zlog)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		if err := client.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.AuthRequired(cfg.AuthKey))
	{
		datasets := api.Group("/datasets/:vertical")
		{
			datasets.POST("/generate", h.GenerateDataset)
			datasets.POST("/anomalies", h.InjectAnomaly)
			datasets.GET("/anomalies/latest", h.GetLatestAnomaly)
			datasets.GET("/summary", h.DataSummary)
			datasets.GET("/versions", h.ListVersions)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zlog.Infow("generator service starting", "port", cfg.Port, "driver", cfg.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatalw("server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Infow("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatalw("server forced to shutdown", "error", err)
	}
	zlog.Infow("server exiting")
}
