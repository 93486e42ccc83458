package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/orgcontext"
)

// EntitlementController exposes feature checks and the subscription summary
type EntitlementController struct {
	loader *entitlements.Loader
}

// NewEntitlementController creates a new entitlement controller
func NewEntitlementController(loader *entitlements.Loader) *EntitlementController {
	return &EntitlementController{loader: loader}
}

type quotaView struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Available bool  `json:"available"`
}

// HandleFeatureCheck answers whether a feature may be viewed. A denial is a
// normal 200 response carrying the reason and current plan.
func (ec *EntitlementController) HandleFeatureCheck(c *fiber.Ctx) error {
	return ec.featureCheck(c, entitlements.RequireFeature)
}

// HandleFeatureWriteCheck answers whether a feature may be modified.
func (ec *EntitlementController) HandleFeatureWriteCheck(c *fiber.Ctx) error {
	return ec.featureCheck(c, entitlements.RequireWriteAccess)
}

func (ec *EntitlementController) featureCheck(c *fiber.Ctx, check func(*entitlements.Resolution, entitlements.Feature) entitlements.Decision) error {
	feature, ok := entitlements.ParseFeature(c.Params("feature"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "unknown_feature", "Unknown feature key")
	}
	r, err := resolution(c, ec.loader, orgcontext.GetOrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(check(r, feature))
}

// HandleEntitlements lists every feature decision and the quotas in one response
func (ec *EntitlementController) HandleEntitlements(c *fiber.Ctx) error {
	r, err := resolution(c, ec.loader, orgcontext.GetOrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	features := make(map[entitlements.Feature]entitlements.AccessLevel, len(entitlements.AllFeatures))
	for _, f := range entitlements.AllFeatures {
		features[f] = r.AccessLevel(f)
	}
	usage := r.Snapshot().Usage
	return c.JSON(fiber.Map{
		"plan":       r.PlanSlug(),
		"pilotPhase": r.Phase(),
		"features":   features,
		"quotas": fiber.Map{
			"assets":  quotaView{Used: usage.Assets, Limit: r.AssetQuota(), Available: r.CanCreateAsset()},
			"members": quotaView{Used: usage.Users, Limit: r.UserQuota(), Available: r.CanInviteUser()},
		},
	})
}

// HandleSubscriptionSummary returns the read model used by the billing settings screen
func (ec *EntitlementController) HandleSubscriptionSummary(c *fiber.Ctx) error {
	r, err := resolution(c, ec.loader, orgcontext.GetOrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(entitlements.Summarize(r))
}
