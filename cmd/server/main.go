package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/marketplace/api"
	"github.com/example/marketplace/pkg/config"
	"github.com/example/marketplace/pkg/media"
	"github.com/example/marketplace/pkg/models"
	"github.com/example/marketplace/pkg/repository"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// Load config
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting marketplace API",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Connect to MySQL
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	err = db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.Tag{},
		&models.Review{},
		&models.User{},
		&models.Profile{},
		&models.Order{},
	)
	if err != nil {
		logger.Fatal("Failed to migrate", zap.Error(err))
	}

	// Redis holds sessions and baskets
	store := repository.NewRedisRepository(&cfg.Redis)
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}
	logger.Info("Redis connected successfully")

	// Mongo audit log is optional; run without it when unreachable
	var audit *repository.AuditRepository
	audit, err = repository.NewAuditRepository(&cfg.MongoDB)
	if err != nil {
		logger.Warn("Failed to connect to MongoDB, continuing without audit log", zap.Error(err))
		audit = nil
	} else {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			audit.Close(closeCtx)
		}()
	}

	server := api.NewServer(cfg, logger, api.Dependencies{
		Catalog: repository.NewCatalogRepository(db),
		Users:   repository.NewUserRepository(db),
		Orders:  repository.NewOrderRepository(db),
		Store:   store,
		Audit:   audit,
		Media:   media.NewStorage(afero.NewOsFs(), &cfg.Media),
	})
	server.SetupRoutes()

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	logger.Info("Server started successfully")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped")
}
