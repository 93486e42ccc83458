package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ManuelReschke/ComplyTrack/app/repository"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/billing"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/cache"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/catalog"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/config"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/database"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/env"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/middleware"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/router"
)

func main() {
	app, cfg := NewApplication()

	go func() {
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("Shutdown failed: %v", err)
	}
	_ = cache.Close()
}

func NewApplication() (*fiber.App, *config.Config) {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := database.SetupDatabase(cfg.Database, cfg.IsDev()); err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	cache.SetupCache(cfg.Cache)
	repository.InitializeFactory(database.GetDB())

	if err := catalog.Seed(repository.GetGlobalFactory().GetPlanRepository()); err != nil {
		log.Fatalf("Seeding plan catalog failed: %v", err)
	}

	// Without Redis the service runs as a single instance with in-process locks.
	var opts []billing.Option
	if cache.Available() {
		opts = append(opts, billing.WithLocker(billing.NewRedisLocker(cache.GetClient(), cfg.LockTTL)))
	} else {
		log.Warn("Cache unavailable, using in-process billing locks and rate limits")
	}
	deps := router.NewDependencies(database.GetDB(), cfg, opts...)
	if cache.Available() {
		deps.LimiterStorage = cache.NewLimiterStorage(cfg.Cache)
	}

	if cfg.Stripe.PriceMap != "" {
		mappings, err := billing.ParsePriceMap(cfg.Stripe.PriceMap)
		if err != nil {
			log.Fatalf("Invalid STRIPE_PRICE_MAP: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = deps.Billing.SeedPriceMappings(ctx, mappings)
		cancel()
		if err != nil {
			log.Fatalf("Seeding price mappings failed: %v", err)
		}
	}
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("STRIPE_WEBHOOK_SECRET is not set, all webhook deliveries will be rejected")
	}

	middleware.RequestTimeout = cfg.RequestTimeout

	app := fiber.New(fiber.Config{
		AppName:   "ComplyTrack",
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), requestid.New(), logger.New())

	router.InstallRouter(app, deps)

	log.Infof("ComplyTrack listening on %s", cfg.ListenAddr())
	return app, cfg
}
