package cache

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/ComplyTrack/internal/pkg/config"
)

// limiterDatabase keeps rate-limit counters apart from locks (DB 0).
const limiterDatabase = 1

// NewLimiterStorage returns the shared fiber.Storage for rate-limit counters,
// so limits hold across instances.
func NewLimiterStorage(cfg config.Cache) fiber.Storage {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: limiterDatabase,
		Reset:    false,
	})
}
