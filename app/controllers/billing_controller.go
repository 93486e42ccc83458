package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ComplyTrack/app/repository"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/billing"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/catalog"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/metrics"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/orgcontext"
)

// BillingController handles plan listing, checkout, portal, plan changes and
// the payment processor webhook
type BillingController struct {
	service       *billing.Service
	sessions      *billing.SessionInitiator
	plans         repository.PlanRepository
	webhookSecret string
}

// NewBillingController creates a new billing controller
func NewBillingController(service *billing.Service, sessions *billing.SessionInitiator, plans repository.PlanRepository, webhookSecret string) *BillingController {
	return &BillingController{
		service:       service,
		sessions:      sessions,
		plans:         plans,
		webhookSecret: webhookSecret,
	}
}

type checkoutRequest struct {
	Plan         string `json:"plan" validate:"required,max=50"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly yearly"`
}

type changePlanRequest struct {
	Plan string `json:"plan" validate:"required,max=50"`
}

type planView struct {
	Slug         string          `json:"slug"`
	Name         string          `json:"name"`
	MaxAssets    int64           `json:"maxAssets"`
	MaxUsers     int64           `json:"maxUsers"`
	Features     map[string]bool `json:"features"`
	Purchasable  bool            `json:"purchasable"`
	ContactSales bool            `json:"contactSales"`
}

// HandleListPlans returns the active catalog ordered by rank
func (bc *BillingController) HandleListPlans(c *fiber.Ctx) error {
	plans, err := bc.plans.GetActive()
	if err != nil {
		return handleServiceError(c, err)
	}
	out := make([]planView, 0, len(plans))
	for i := range plans {
		p := &plans[i]
		out = append(out, planView{
			Slug:         p.Slug,
			Name:         p.Name,
			MaxAssets:    p.MaxAssets,
			MaxUsers:     p.MaxUsers,
			Features:     p.FeatureMap(),
			Purchasable:  catalog.Purchasable(p),
			ContactSales: p.SalesOnly,
		})
	}
	return c.JSON(fiber.Map{"plans": out})
}

// HandleCreateCheckoutSession starts a hosted checkout for a plan purchase.
// Request: JSON { "plan": "professional", "billingCycle": "monthly" }
// Response: { url }
func (bc *BillingController) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	url, err := bc.sessions.CreateCheckoutSession(ctx, orgcontext.GetOrganizationID(c), req.Plan, req.BillingCycle)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleCreatePortalSession returns the self-service billing portal URL
func (bc *BillingController) HandleCreatePortalSession(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	url, err := bc.sessions.CreatePortalSession(ctx, orgcontext.GetOrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleChangePlan moves an organization without a processor subscription to a lower or equal plan
func (bc *BillingController) HandleChangePlan(c *fiber.Ctx) error {
	var req changePlanRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	sub, err := bc.service.ChangePlan(ctx, orgcontext.GetOrganizationID(c), req.Plan)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleStripeWebhook verifies and applies a processor event. Any 2xx tells
// the processor to stop retrying, so only transient failures answer 500.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	ev, err := billing.ParseStripeWebhook(payload, c.Get("Stripe-Signature"), bc.webhookSecret)
	if err != nil {
		log.Warnw("stripe webhook rejected", "reason", "signature")
		metrics.RecordWebhookEvent("unverified", "invalid_signature")
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	outcome, err := bc.service.Apply(ctx, ev)
	if err != nil {
		if errors.Is(err, billing.ErrMalformedEvent) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
		}
		return jsonError(c, fiber.StatusInternalServerError, "webhook_processing_failed", "Event could not be processed")
	}
	return c.JSON(fiber.Map{"received": true, "outcome": outcome})
}
