package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/app/repository"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/orgcontext"
)

// AssetController handles tracked equipment. Creation sits behind the asset quota gate.
type AssetController struct {
	repos *repository.Repositories
}

func NewAssetController(repos *repository.Repositories) *AssetController {
	return &AssetController{repos: repos}
}

type createAssetRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	SerialNumber string `json:"serialNumber" validate:"max=100"`
}

func (ac *AssetController) HandleListAssets(c *fiber.Ctx) error {
	orgID := orgcontext.GetOrganizationID(c)
	offset, limit := pagination(c)
	assets, err := ac.repos.Asset.GetByOrganizationID(orgID, offset, limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	total, err := ac.repos.Asset.CountByOrganizationID(orgID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"assets": assets, "total": total})
}

func (ac *AssetController) HandleCreateAsset(c *fiber.Ctx) error {
	var req createAssetRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	asset := &models.Asset{
		OrganizationID: orgcontext.GetOrganizationID(c),
		Name:           strings.TrimSpace(req.Name),
		SerialNumber:   strings.TrimSpace(req.SerialNumber),
	}
	if err := asset.Validate(); err != nil {
		return badRequest(c, err)
	}
	if err := ac.repos.Asset.Create(asset); err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

func (ac *AssetController) HandleGetAsset(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid asset id")
	}
	asset, err := ac.repos.Asset.GetByID(orgcontext.GetOrganizationID(c), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(asset)
}

// HandleArchiveAsset frees the quota slot; archived assets are kept for the audit history.
func (ac *AssetController) HandleArchiveAsset(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid asset id")
	}
	if err := ac.repos.Asset.Archive(orgcontext.GetOrganizationID(c), id); err != nil {
		return handleServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
