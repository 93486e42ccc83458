package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/ComplyTrack/app/controllers"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/metrics"
)

// HttpRouter installs the non-API routes: health, metrics and processor webhooks
type HttpRouter struct {
	deps Dependencies
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if len(h.deps.MetricsUsers) > 0 {
		app.Get("/metrics", basicauth.New(basicauth.Config{Users: h.deps.MetricsUsers}), metrics.Handler())
	} else {
		app.Get("/metrics", metrics.Handler())
	}

	billingController := controllers.NewBillingController(h.deps.Billing, h.deps.Sessions, h.deps.Repos.Plan, h.deps.WebhookSecret)

	// Signature-verified in the controller. The processor retries on 429, so
	// the limit only guards against floods.
	webhooks := app.Group("/webhooks", limiter.New(limiter.Config{
		Max:        h.deps.RateLimitMax * 10,
		Expiration: time.Minute,
		Storage:    h.deps.LimiterStorage,
	}))
	webhooks.Post("/stripe", billingController.HandleStripeWebhook)
}
