package handlers

import (
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/pagination"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PolicyHandler handles insurance policies
type PolicyHandler struct {
	policyService *services.PolicyService
	log           *zap.Logger
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policyService *services.PolicyService, log *zap.Logger) *PolicyHandler {
	return &PolicyHandler{
		policyService: policyService,
		log:           log.Named("http.policies"),
	}
}

// Create handles creating a policy for a member (Admin/Staff)
func (h *PolicyHandler) Create(c *fiber.Ctx) error {
	var req services.CreatePolicyInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	policy, err := h.policyService.Create(c.UserContext(), actorFrom(c), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Created(c, "Policy created successfully", policy)
}

// List handles listing policies; members only see their own
func (h *PolicyHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	policies, total, err := h.policyService.List(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Paginated(c, "Policies retrieved successfully", policies, pagination.GetMeta(params, total))
}

// Get handles fetching a policy by ID
func (h *PolicyHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	policy, err := h.policyService.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Policy retrieved successfully", policy)
}

// Update handles updating a policy (Admin/Staff)
func (h *PolicyHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req services.UpdatePolicyInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	policy, err := h.policyService.Update(c.UserContext(), actorFrom(c), id, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Policy updated successfully", policy)
}

// Delete handles deleting a policy (Admin/Staff)
func (h *PolicyHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.policyService.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Policy deleted successfully", nil)
}
