package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/orgcontext"
)

// KeyResolution holds the *entitlements.Resolution of a passed gate, so handlers
// can reuse it instead of loading the snapshot again.
const KeyResolution = "entitlement_resolution"

// RequestTimeout bounds storage and processor calls made for one request.
var RequestTimeout = 10 * time.Second

type gate func(r *entitlements.Resolution) entitlements.Decision

// RequireFeature admits organizations with full or read-only access to a feature.
func RequireFeature(loader *entitlements.Loader, f entitlements.Feature) fiber.Handler {
	return guardHandler(loader, func(r *entitlements.Resolution) entitlements.Decision {
		return entitlements.RequireFeature(r, f)
	})
}

// RequireWriteAccess admits only organizations with full access to a feature.
func RequireWriteAccess(loader *entitlements.Loader, f entitlements.Feature) fiber.Handler {
	return guardHandler(loader, func(r *entitlements.Resolution) entitlements.Decision {
		return entitlements.RequireWriteAccess(r, f)
	})
}

// RequireAssetQuota rejects asset creation once the effective quota is used up.
func RequireAssetQuota(loader *entitlements.Loader) fiber.Handler {
	return guardHandler(loader, entitlements.RequireAssetSlot)
}

// RequireMemberQuota rejects invitations once the seat quota is used up.
func RequireMemberQuota(loader *entitlements.Loader) fiber.Handler {
	return guardHandler(loader, entitlements.RequireMemberSlot)
}

func guardHandler(loader *entitlements.Loader, check gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := orgcontext.GetOrganizationID(c)
		if orgID == 0 {
			return unauthorized(c)
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), RequestTimeout)
		defer cancel()
		r, err := loader.Resolve(ctx, orgID)
		if err != nil {
			if errors.Is(err, entitlements.ErrOrganizationNotFound) {
				return unauthorized(c)
			}
			log.Errorw("entitlement check failed", "organization_id", orgID, "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Entitlement check failed"})
		}

		d := check(r)
		if !d.Allowed {
			return c.Status(fiber.StatusForbidden).JSON(d)
		}
		c.Locals(KeyResolution, r)
		return c.Next()
	}
}
