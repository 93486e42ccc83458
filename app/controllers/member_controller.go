package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/app/repository"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/orgcontext"
)

// MemberController handles organization seats
type MemberController struct {
	repos *repository.Repositories
}

func NewMemberController(repos *repository.Repositories) *MemberController {
	return &MemberController{repos: repos}
}

type inviteMemberRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
	Role  string `json:"role" validate:"omitempty,oneof=owner member"`
}

func (mc *MemberController) HandleListMembers(c *fiber.Ctx) error {
	members, err := mc.repos.Member.GetByOrganizationID(orgcontext.GetOrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"members": members})
}

func (mc *MemberController) HandleInviteMember(c *fiber.Ctx) error {
	var req inviteMemberRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	role := req.Role
	if role == "" {
		role = models.MemberRoleMember
	}
	member := &models.Member{
		OrganizationID: orgcontext.GetOrganizationID(c),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Role:           role,
	}
	if err := mc.repos.Member.Create(member); err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

func (mc *MemberController) HandleDeactivateMember(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid member id")
	}
	if err := mc.repos.Member.Deactivate(orgcontext.GetOrganizationID(c), id); err != nil {
		return handleServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
