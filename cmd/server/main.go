package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/assign"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/config"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/drive"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/handler"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/service"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/session"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/store"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Claim Annotation Service...")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	policy, err := assign.ParsePolicy(cfg.Assignment.Policy)
	if err != nil {
		logger.Fatal("Invalid assignment policy", zap.Error(err))
	}
	assigner := assign.Assigner{
		Policy:     policy,
		Annotators: cfg.Annotators.Count,
	}

	// Local store is always available; it backs local and both modes.
	localStore := store.NewLocal(cfg.Storage.LocalDir, logger)

	// Remote store only when drive storage is enabled.
	var remoteStore service.RemoteStore
	if cfg.Storage.Mode == config.StorageDrive || cfg.Storage.Mode == config.StorageBoth {
		svc, err := drive.NewService(context.Background(), drive.Credentials{
			JSON: cfg.Drive.CredentialsJSON,
			File: cfg.Drive.CredentialsFile,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Google Drive client", zap.Error(err))
		}
		remoteStore = drive.NewStore(drive.NewAPI(svc), cfg.Drive.RootFolder, cfg.Drive.ShareWith, logger)
	}

	sessions := session.NewStore(time.Duration(cfg.Session.TTLMinutes) * time.Minute)

	labeler := service.NewLabeler(
		cfg.Dataset.Path,
		assigner,
		sessions,
		localStore,
		remoteStore,
		service.StorageMode(cfg.Storage.Mode),
		logger,
	)

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(labeler, cfg.Dataset.ImagesDir, cfg.Dataset.GuidelinesPath, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Claim Annotation Service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("storage_mode", cfg.Storage.Mode),
		zap.String("assignment_policy", cfg.Assignment.Policy))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
