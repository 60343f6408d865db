// main.go
package main

import (
	"context"
	"log"
	"time"

	"table-booking/cmd"
	"table-booking/internal/data/entity"
	"table-booking/internal/data/repository"
	"table-booking/internal/usecase"
	"table-booking/internal/wire"
	"table-booking/pkg/database"
	"table-booking/pkg/metrics"
	"table-booking/pkg/notify"
	"table-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("notify_driver", config.Notify.Driver),
	)

	ctx := context.Background()

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Schema applied")
	}

	// Change feed for live views; a single replica can run without Redis
	var feed repository.ChangeFeed
	rdb, err := database.InitRedis(ctx, config.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, live views limited to this replica", zap.Error(err))
		feed = repository.NewLocalFeed()
	} else {
		defer rdb.Close()
		feed = repository.NewRedisFeed(rdb, logger)
		logger.Info("Redis connected successfully", zap.String("addr", config.Redis.Addr))
	}

	// Notification dispatcher
	dispatcher, err := notify.New(notify.Options{
		Driver:       config.Notify.Driver,
		AMQPURL:      config.Notify.AMQPURL,
		AMQPExchange: config.Notify.AMQPExchange,
		KafkaBrokers: config.Notify.KafkaBrokers,
		KafkaTopic:   config.Notify.KafkaTopic,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to init notification dispatcher", zap.Error(err))
	}
	notifier := usecase.NewNotificationTrigger(dispatcher, config.Notify.Timeout, logger)

	metrics.Register()

	// Initialize all repositories
	repos := repository.NewRepository(db, feed, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, notifier, config, logger)

	// Bootstrap super admin; every other staff-level user is enrolled through it
	if config.Seed.SuperAdminID != "" {
		seeded, err := app.Service.User.SeedSuperAdmin(ctx, usecase.SuperAdminSeed{
			ID:         config.Seed.SuperAdminID,
			Name:       config.Seed.SuperAdminName,
			Restaurant: entity.Restaurant(config.Seed.SuperAdminRestaurant),
		})
		switch {
		case err != nil:
			logger.Fatal("Failed to seed super admin", zap.Error(err))
		case seeded == nil:
			logger.Info("Super admin seed already present", zap.String("user_id", config.Seed.SuperAdminID))
		default:
			// printed once, on the run that creates the row
			logger.Info("Super admin seeded",
				zap.String("user_id", seeded.User.ID),
				zap.String("access_token", seeded.AccessToken),
				zap.Time("expires_at", seeded.ExpiresAt),
			)
		}
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := notifier.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to close notification dispatcher", zap.Error(err))
	}

	logger.Info("Application stopped")
}
