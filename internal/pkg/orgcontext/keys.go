package orgcontext

// Locals keys shared by middlewares and controllers
const (
	KeyOrgContext     = "ORG_CONTEXT"
	KeyOrganizationID = "organization_id"
	KeyAuthenticated  = "authenticated"
)
