package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/babdal-backend/config"
	"github.com/ikkim/babdal-backend/internal/app/controller"
	"github.com/ikkim/babdal-backend/internal/app/repository"
	"github.com/ikkim/babdal-backend/internal/app/service"
	"github.com/ikkim/babdal-backend/internal/kvstore"
	"github.com/ikkim/babdal-backend/internal/persist"
	"github.com/ikkim/babdal-backend/internal/router"
	"github.com/ikkim/babdal-backend/internal/scheduler"
	"github.com/ikkim/babdal-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting BABDAL Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"storage":     cfg.Storage.Driver,
		"log_level":   logLevel,
	})

	// Open the key-value store
	store, err := kvstore.Open(&cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open key-value store", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close key-value store", err)
		}
	}()

	// Fire-and-forget snapshot writer
	writer := persist.NewWriter()
	defer writer.Close()

	// Initialize repositories
	cartRepo := repository.NewCartRepository(store)
	recurringRepo := repository.NewRecurringOrderRepository(store)

	// Initialize services
	cartService := service.NewCartService(cartRepo, writer)
	recurringService := service.NewRecurringOrderService(recurringRepo, writer)
	orderPlacer := service.NewLoggingOrderPlacer()
	checkoutService := service.NewCheckoutService(cartService, recurringService, orderPlacer)

	// Initialize controllers
	cartController := controller.NewCartController(cartService)
	checkoutController := controller.NewCheckoutController(checkoutService)
	recurringController := controller.NewRecurringOrderController(recurringService)

	// Start the recurring order runner
	if cfg.Order.RunnerEnabled {
		runner := scheduler.NewRecurringOrderRunner(recurringService, orderPlacer, cfg.Order.RunnerWindowHours)
		if err := runner.Start(); err != nil {
			logger.Fatal("Failed to start recurring order runner", err)
		}
		defer runner.Stop()
	}

	// Setup router
	r := router.NewRouter(cartController, checkoutController, recurringController, cfg)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
