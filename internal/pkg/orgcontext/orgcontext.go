package orgcontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ComplyTrack/app/models"
)

// OrgContext represents the authenticated tenant of a request
type OrgContext struct {
	OrganizationID  uint   `json:"organization_id"`
	Name            string `json:"name"`
	IsPilot         bool   `json:"is_pilot"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// Set stores the organization on the fiber context
func Set(c *fiber.Ctx, org *models.Organization) {
	c.Locals(KeyOrgContext, OrgContext{
		OrganizationID:  org.ID,
		Name:            org.Name,
		IsPilot:         org.IsPilot,
		IsAuthenticated: true,
	})
	c.Locals(KeyOrganizationID, org.ID)
	c.Locals(KeyAuthenticated, true)
}

// GetOrgContext retrieves the organization context from fiber context.
// Returns an unauthenticated context if none is set.
func GetOrgContext(c *fiber.Ctx) OrgContext {
	if ctx, ok := c.Locals(KeyOrgContext).(OrgContext); ok {
		return ctx
	}
	return OrgContext{}
}

// IsAuthenticated checks if the request carries a resolved organization
func IsAuthenticated(c *fiber.Ctx) bool {
	return GetOrgContext(c).IsAuthenticated
}

// GetOrganizationID returns the current organization ID, or 0 if unauthenticated
func GetOrganizationID(c *fiber.Ctx) uint {
	return GetOrgContext(c).OrganizationID
}
