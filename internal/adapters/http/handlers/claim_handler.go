package handlers

import (
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/pagination"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ClaimHandler handles claim submission and review
type ClaimHandler struct {
	claimService *services.ClaimService
	log          *zap.Logger
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claimService *services.ClaimService, log *zap.Logger) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
		log:          log.Named("http.claims"),
	}
}

// Create submits a claim against a policy
func (h *ClaimHandler) Create(c *fiber.Ctx) error {
	var req services.CreateClaimInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	claim, err := h.claimService.Create(c.UserContext(), actorFrom(c), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Created(c, "Claim submitted successfully", claim)
}

// List returns claims, newest first. Members only see their own.
func (h *ClaimHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	claims, total, err := h.claimService.List(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Paginated(c, "Claims retrieved successfully", claims, pagination.GetMeta(params, total))
}

// Get handles fetching a claim by ID
func (h *ClaimHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	claim, err := h.claimService.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Claim retrieved successfully", claim)
}

// UpdateStatus moves a claim along its lifecycle
func (h *ClaimHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req services.UpdateClaimStatusInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	claim, err := h.claimService.UpdateStatus(c.UserContext(), actorFrom(c), id, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Claim status updated successfully", claim)
}
