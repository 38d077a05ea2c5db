package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vidtube/internal/config"
	"vidtube/internal/handlers"
	"vidtube/internal/middleware"
	"vidtube/internal/repositories"
	"vidtube/internal/services"
	"vidtube/pkg/blobstore"
	"vidtube/pkg/logger"
	"vidtube/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := openStore(ctx, cfg)
	if err != nil {
		cancel()
		logger.L().Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	blobs, err := openBlobs(ctx, cfg)
	cancel()
	if err != nil {
		logger.L().Fatal("failed to open blob store", zap.String("driver", cfg.BlobDriver), zap.Error(err))
	}

	// Events are optional: without RabbitMQ they are dropped.
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			logger.L().Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		if err := mqClient.ConsumeEvents(rabbitmq.LogEvent); err != nil {
			logger.Warn("failed to start event consumer", zap.Error(err))
		}
		events = mqClient
	}

	limiter, closeLimiter, err := openLimiter(cfg)
	if err != nil {
		logger.L().Fatal("failed to initialize rate limiter", zap.Error(err))
	}
	defer closeLimiter()

	app := handlers.NewApp(handlers.AppConfig{
		Store:  store,
		Blobs:  blobs,
		Events: events,
		Tokens: services.TokenConfig{
			AccessSecret:  cfg.AccessTokenSecret,
			AccessExpiry:  cfg.AccessTokenExpiry,
			RefreshSecret: cfg.RefreshTokenSecret,
			RefreshExpiry: cfg.RefreshTokenExpiry,
		},
		Limiter:    limiter,
		CORSOrigin: cfg.CORSOrigin,
		RequestLog: !cfg.IsProduction(),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Port), zap.String("env", cfg.Env))
		if err := app.Listen(cfg.Port); err != nil {
			logger.L().Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during fiber shutdown", zap.Error(err))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := store.Close(closeCtx); err != nil {
		logger.Error("error closing store", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (*repositories.Store, error) {
	return repositories.Open(ctx, repositories.OpenConfig{
		Driver:        cfg.StoreDriver,
		DSN:           cfg.DatabaseDSN,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
}

func openBlobs(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobDriver {
	case "s3":
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	case "memory":
		logger.Warn("using the in-memory blob store; uploads are lost on restart")
		return blobstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}

// openLimiter shares the auth rate limit through Redis when REDIS_URL is set
// and keeps it per process otherwise.
func openLimiter(cfg *config.Config) (middleware.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return middleware.NewLocalLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis client", zap.Error(err))
		}
	}
	return middleware.NewRedisLimiter(rdb, cfg.AuthRateLimit, cfg.AuthRateWindow), closeFn, nil
}
