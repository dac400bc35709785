package handlers

import (
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/pagination"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler handles member profiles
type MemberHandler struct {
	memberService *services.MemberService
	log           *zap.Logger
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService, log *zap.Logger) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		log:           log.Named("http.members"),
	}
}

// Create adds a member profile for an existing user
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req services.CreateMemberInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	member, err := h.memberService.Create(c.UserContext(), actorFrom(c), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Created(c, "Member created successfully", member)
}

// List returns member profiles
func (h *MemberHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	members, total, err := h.memberService.List(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Paginated(c, "Members retrieved successfully", members, pagination.GetMeta(params, total))
}

// Me returns the caller's own member profile
func (h *MemberHandler) Me(c *fiber.Ctx) error {
	member, err := h.memberService.GetMine(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Member retrieved successfully", member)
}

// Get returns one member profile
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	member, err := h.memberService.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Member retrieved successfully", member)
}

// Update changes the fields present in the body
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req services.UpdateMemberInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	member, err := h.memberService.Update(c.UserContext(), actorFrom(c), id, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Member updated successfully", member)
}

// Delete removes a member profile
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.memberService.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Member deleted successfully", nil)
}
