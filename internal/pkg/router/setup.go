package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ComplyTrack/app/repository"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/billing"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/config"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the services shared by all routes
type Dependencies struct {
	Repos         *repository.Repositories
	Loader        *entitlements.Loader
	Billing       *billing.Service
	Sessions      *billing.SessionInitiator
	WebhookSecret string

	// LimiterStorage backs the rate limiter; nil keeps counters in memory.
	LimiterStorage fiber.Storage
	RateLimitMax   int

	// MetricsUsers enables basic auth on /metrics when not empty.
	MetricsUsers map[string]string
}

// NewDependencies wires repositories and services from a database handle.
func NewDependencies(db *gorm.DB, cfg *config.Config, opts ...billing.Option) Dependencies {
	policy := cfg.Pilot.Policy()
	factory := repository.NewFactory(db)
	opts = append([]billing.Option{billing.WithPolicy(policy)}, opts...)

	return Dependencies{
		Repos:         factory.GetRepositories(),
		Loader:        entitlements.NewLoader(factory.GetEntitlementSource(), policy),
		Billing:       billing.NewServiceFromDB(db, opts...),
		Sessions:      billing.NewSessionInitiator(billing.NewRepository(db), cfg.Stripe.SecretKey, cfg.PublicURL),
		WebhookSecret: cfg.Stripe.WebhookSecret,
		RateLimitMax:  cfg.RateLimitMax,
		MetricsUsers:  metricsUsers(cfg.Metrics),
	}
}

func metricsUsers(m config.Metrics) map[string]string {
	if m.Password == "" {
		return nil
	}
	return map[string]string{m.User: m.Password}
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
