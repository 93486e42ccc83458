package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/ComplyTrack/app/controllers"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	d := h.deps
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        d.RateLimitMax,
		Expiration: time.Minute,
		Storage:    d.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited", "message": "Too many requests"})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	entitlementController := controllers.NewEntitlementController(d.Loader)
	billingController := controllers.NewBillingController(d.Billing, d.Sessions, d.Repos.Plan, d.WebhookSecret)
	signupController := controllers.NewSignupController(d.Billing)
	assetController := controllers.NewAssetController(d.Repos)
	memberController := controllers.NewMemberController(d.Repos)
	complianceController := controllers.NewComplianceController(d.Repos)

	v1 := api.Group("/v1")

	// public
	v1.Post("/signup", signupController.HandleSignup)
	v1.Get("/plans", billingController.HandleListPlans)

	// organization scoped
	org := v1.Group("", middleware.APIKeyAuthMiddleware(d.Repos.Organization), middleware.RequireOrganization)

	org.Get("/entitlements", entitlementController.HandleEntitlements)
	org.Get("/entitlements/features/:feature", entitlementController.HandleFeatureCheck)
	org.Get("/entitlements/features/:feature/write", entitlementController.HandleFeatureWriteCheck)
	org.Get("/subscription", entitlementController.HandleSubscriptionSummary)

	org.Post("/billing/checkout", billingController.HandleCreateCheckoutSession)
	org.Post("/billing/portal", billingController.HandleCreatePortalSession)
	org.Post("/billing/plan", billingController.HandleChangePlan)

	org.Get("/assets", assetController.HandleListAssets)
	org.Post("/assets", middleware.RequireAssetQuota(d.Loader), assetController.HandleCreateAsset)
	org.Get("/assets/:id", assetController.HandleGetAsset)
	org.Delete("/assets/:id", assetController.HandleArchiveAsset)
	org.Get("/assets/:id/compliance", middleware.RequireFeature(d.Loader, entitlements.FeatureCompliance), complianceController.HandleAssetRecords)

	org.Get("/members", memberController.HandleListMembers)
	org.Post("/members", middleware.RequireMemberQuota(d.Loader), memberController.HandleInviteMember)
	org.Delete("/members/:id", memberController.HandleDeactivateMember)

	compliance := org.Group("/compliance")
	compliance.Get("/records", middleware.RequireFeature(d.Loader, entitlements.FeatureCompliance), complianceController.HandleListRecords)
	compliance.Post("/records", middleware.RequireWriteAccess(d.Loader, entitlements.FeatureCompliance), complianceController.HandleCreateRecord)
}
