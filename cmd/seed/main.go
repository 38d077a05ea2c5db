// Command seed fills the configured store with demo data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"vidtube/internal/config"
	"vidtube/internal/repositories"
	"vidtube/internal/seed"
	"vidtube/pkg/logger"
)

func main() {
	users := flag.Int("users", 20, "Number of users to create")
	videos := flag.Int("videos", 5, "Videos per user")
	comments := flag.Int("comments", 3, "Comments per video")
	tweets := flag.Int("tweets", 3, "Tweets per user")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible content")
	flag.Parse()

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := repositories.Open(ctx, repositories.OpenConfig{
		Driver:        cfg.StoreDriver,
		DSN:           cfg.DatabaseDSN,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		logger.L().Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close(context.Background())

	logger.Info("seeding", zap.String("driver", cfg.StoreDriver), zap.Int("users", *users), zap.Int64("seed", *randSeed))
	_, err = seed.NewSeeder(store, seed.Options{
		Users:            *users,
		VideosPerUser:    *videos,
		CommentsPerVideo: *comments,
		TweetsPerUser:    *tweets,
		Seed:             *randSeed,
	}).Run(ctx)
	if err != nil {
		logger.L().Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("all seeded users share one password", zap.String("password", seed.DefaultPassword))
}
