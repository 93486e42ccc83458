package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/app/repository"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/orgcontext"
)

// ComplianceController handles inspection records. Reads pass the read gate,
// writes need full access.
type ComplianceController struct {
	repos *repository.Repositories
}

func NewComplianceController(repos *repository.Repositories) *ComplianceController {
	return &ComplianceController{repos: repos}
}

type createComplianceRecordRequest struct {
	AssetID     uint       `json:"assetId" validate:"required"`
	Result      string     `json:"result" validate:"required,oneof=pass fail"`
	Notes       string     `json:"notes" validate:"max=2000"`
	InspectedAt *time.Time `json:"inspectedAt"`
}

func (cc *ComplianceController) HandleListRecords(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	records, err := cc.repos.Compliance.GetByOrganizationID(orgcontext.GetOrganizationID(c), offset, limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"records": records})
}

func (cc *ComplianceController) HandleAssetRecords(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid asset id")
	}
	records, err := cc.repos.Compliance.GetByAssetID(orgcontext.GetOrganizationID(c), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"records": records})
}

func (cc *ComplianceController) HandleCreateRecord(c *fiber.Ctx) error {
	var req createComplianceRecordRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	orgID := orgcontext.GetOrganizationID(c)

	// the asset must belong to the caller's organization
	if _, err := cc.repos.Asset.GetByID(orgID, req.AssetID); err != nil {
		return handleServiceError(c, err)
	}

	inspectedAt := time.Now().UTC()
	if req.InspectedAt != nil {
		inspectedAt = req.InspectedAt.UTC()
	}
	record := &models.ComplianceRecord{
		OrganizationID: orgID,
		AssetID:        req.AssetID,
		Result:         req.Result,
		Notes:          strings.TrimSpace(req.Notes),
		InspectedAt:    inspectedAt,
	}
	if err := cc.repos.Compliance.Create(record); err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}
