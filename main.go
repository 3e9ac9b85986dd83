package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediagrab/config"
	"mediagrab/internal/handler"
	"mediagrab/internal/pipeline"
	"mediagrab/internal/service"
	"mediagrab/internal/storage"
	"mediagrab/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting mediagrab server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	if cfg.Catalog.APIKey == "" {
		logger.Logger.Warn("Catalog API key not set; metadata lookups will fail")
	}

	// Workspace: ensure the root exists and clear directories orphaned by a
	// previous crash before accepting any work.
	workspace := storage.NewWorkspace(&cfg.Storage)
	if err := workspace.EnsureRoot(); err != nil {
		logger.Logger.Fatal("Failed to create workspace root", zap.Error(err))
	}
	if swept, err := workspace.SweepOrphans(); err != nil {
		logger.Logger.Error("Orphan sweep failed", zap.Error(err))
	} else if swept > 0 {
		logger.Logger.Info("Swept orphaned workspaces", zap.Int("count", swept))
	}

	// Services
	metadataService := service.NewMetadataService(&cfg.Catalog)
	progressService := service.NewProgressService()
	engine := pipeline.NewYtdlp(&cfg.Pipeline)
	downloadService := service.NewDownloadService(cfg, metadataService, progressService, workspace, engine)
	downloadService.Start()
	defer downloadService.Stop()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logger.GinLogger(), gin.Recovery())

	videoHandler := handler.NewVideoHandler(metadataService, cfg)
	downloadHandler := handler.NewDownloadHandler(downloadService, progressService, cfg)

	api := router.Group("/api")
	{
		api.GET("/video/info", videoHandler.GetVideoInfo)

		api.POST("/download", downloadHandler.StartDownload)
		api.GET("/download/:id", downloadHandler.GetFile)
		api.GET("/download/:id/progress", downloadHandler.GetProgress)

		api.GET("/health", videoHandler.HealthCheck)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.Timeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.Timeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server stopped")
}
