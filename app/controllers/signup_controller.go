package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ComplyTrack/internal/pkg/billing"
)

// SignupController provisions new organizations
type SignupController struct {
	service *billing.Service
}

func NewSignupController(service *billing.Service) *SignupController {
	return &SignupController{service: service}
}

type signupRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=150"`
	Pilot bool   `json:"pilot"`
}

// HandleSignup creates an organization on the starter plan and returns its API key.
// The raw key is shown only once.
func (sc *SignupController) HandleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	org, apiKey, err := sc.service.ProvisionOrganization(ctx, req.Name, req.Pilot)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"organization": org,
		"apiKey":       apiKey,
	})
}
