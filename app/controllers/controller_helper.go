package controllers

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ComplyTrack/internal/pkg/billing"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/middleware"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var validate = validator.New()

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), middleware.RequestTimeout)
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// bindBody decodes and validates a JSON request body.
func bindBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("request body could not be parsed")
	}
	return validate.Struct(out)
}

func badRequest(c *fiber.Ctx, err error) error {
	return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, entitlements.ErrOrganizationNotFound):
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Organization not found")
	case errors.As(err, &verrs):
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, billing.ErrInvalidBillingCycle):
		return jsonError(c, fiber.StatusBadRequest, "invalid_billing_cycle", err.Error())
	case errors.Is(err, billing.ErrPlanNotFound):
		return jsonError(c, fiber.StatusBadRequest, "unknown_plan", err.Error())
	case errors.Is(err, billing.ErrMalformedEvent):
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	case errors.Is(err, billing.ErrAlreadySubscribed):
		return jsonError(c, fiber.StatusConflict, "already_subscribed", err.Error())
	case errors.Is(err, billing.ErrManagedExternally):
		return jsonError(c, fiber.StatusConflict, "managed_externally", err.Error())
	case errors.Is(err, billing.ErrUpgradeRequiresPayment):
		return jsonError(c, fiber.StatusConflict, "checkout_required", err.Error())
	case errors.Is(err, billing.ErrNoCustomer):
		return jsonError(c, fiber.StatusConflict, "no_customer", err.Error())
	case errors.Is(err, billing.ErrPlanNotPurchasable):
		return jsonError(c, fiber.StatusUnprocessableEntity, "contact_sales", err.Error())
	case errors.Is(err, billing.ErrPriceNotConfigured), errors.Is(err, billing.ErrNotConfigured):
		return jsonError(c, fiber.StatusServiceUnavailable, "billing_unavailable", err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Resource not found")
	default:
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal server error")
	}
}

// resolution returns the entitlement resolution stored by a guard middleware,
// loading it when the route had no gate.
func resolution(c *fiber.Ctx, loader *entitlements.Loader, orgID uint) (*entitlements.Resolution, error) {
	if r, ok := c.Locals(middleware.KeyResolution).(*entitlements.Resolution); ok && r != nil {
		return r, nil
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	return loader.Resolve(ctx, orgID)
}

func pagination(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return (page - 1) * limit, limit
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
