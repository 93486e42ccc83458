package cache

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/ComplyTrack/internal/pkg/config"
)

var (
	client    *redis.Client
	available bool
)

// SetupCache connects to the shared Redis instance used for locks and rate limiting.
func SetupCache(cfg config.Cache) {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("Could not connect to cache at %s: %v", cfg.Addr(), err)
	} else {
		available = true
		log.Infof("Successfully connected to cache: %s", pong)
	}
}

// Available reports whether the startup ping succeeded.
func Available() bool {
	return available
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		panic("cache not initialized. Call SetupCache first.")
	}
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
