// Package main is the entrypoint for the dler API server
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/dlerhq/dler/config"
	"github.com/dlerhq/dler/internal/api/middleware"
	"github.com/dlerhq/dler/internal/api/v1/handlers"
	"github.com/dlerhq/dler/internal/db"
	"github.com/dlerhq/dler/internal/db/models"
	"github.com/dlerhq/dler/internal/db/repos"
	"github.com/dlerhq/dler/internal/downloader"
	"github.com/dlerhq/dler/internal/logger"
	"github.com/dlerhq/dler/internal/services"
	"github.com/dlerhq/dler/pkg/api/v1/routes"
)

func main() {
	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	logger.Initialize()

	dbConn, err := db.New(db.Options{
		Host:     config.GetEnv("DB_HOST", db.DefaultHost),
		Port:     config.GetEnvInt("DB_PORT", db.DefaultPort),
		User:     config.GetEnv("DB_USER", db.DefaultUser),
		Password: config.GetEnv("DB_PASSWORD", db.DefaultPassword),
		DBName:   config.GetEnv("DB_NAME", db.DefaultDBName),
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	downloadDir := config.GetEnv("DOWNLOAD_DIR", "downloads")
	files, err := services.NewFileGateway(downloadDir)
	if err != nil {
		logger.Fatalf("Failed to prepare download directory: %v", err)
	}

	taskRepo := repos.NewTaskRepository(dbConn)
	historyRepo := repos.NewHistoryRepository(dbConn, models.MaxHistorySize)
	cacheRepo := repos.NewCacheRepository(dbConn)
	taskService := services.NewTaskService(taskRepo, historyRepo, cacheRepo, files)

	// Background download workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dl := downloader.NewYtDlp(downloadDir)
	workerCount := config.GetEnvInt("WORKER_COUNT", 2)
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		logger.Debugf("Starting download worker %d", i)
		wg.Add(1)
		go services.LaunchWorker(ctx, &wg, taskService, dl, services.WorkerConfig{})
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})
	app.Use(middleware.Logger())

	taskHandler := handlers.NewTaskHandler(taskService)
	routes.RegisterRoutes(app, taskHandler)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Infof("Received signal %s, shutting down", sig)

		cancel()
		wg.Wait()
		if err := app.Shutdown(); err != nil {
			logger.Errorf("Error during server shutdown: %v", err)
		}
	}()

	port := config.GetEnv("PORT", routes.DefaultPort)
	logger.Infof("Starting server on port %s with %d workers", port, workerCount)
	if err := app.Listen(":" + port); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Info("Server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
