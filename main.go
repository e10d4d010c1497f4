// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"event-marketplace/cmd"
	"event-marketplace/internal/data/repository"
	"event-marketplace/internal/gateway"
	"event-marketplace/internal/notification"
	"event-marketplace/internal/usecase"
	"event-marketplace/internal/wire"
	"event-marketplace/pkg/cache"
	"event-marketplace/pkg/database"
	"event-marketplace/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.Migrate {
		if err := database.RunMigrations(ctx, db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	gw, err := newGateway(config.Payment, logger)
	if err != nil {
		logger.Fatal("Failed to configure payment gateway", zap.Error(err))
	}

	var notifier usecase.Notifier = notification.NewLogNotifier(logger)
	if config.Broker.URL != "" {
		notifier = notification.NewAMQPPublisher(config.Broker.URL, config.Broker.Queue, logger)
	}

	deps := wire.Deps{
		Repo:     repos,
		Gateway:  gw,
		Notifier: notifier,
	}
	if rdb := cache.NewRedisClient(ctx, config.Redis, logger); rdb != nil {
		defer rdb.Close()
		deps.Limiter = redis.Scripter(rdb)
	}

	// Wire all dependencies
	app := wire.Wiring(deps, config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}

func newGateway(cfg utils.PaymentConfig, logger *zap.Logger) (gateway.Adapter, error) {
	switch cfg.Provider {
	case gateway.ProviderStripe:
		if cfg.SecretKey == "" || cfg.WebhookSecret == "" {
			logger.Warn("Stripe keys are empty, payments will fail until configured")
		}
		return gateway.NewStripeGateway(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}
