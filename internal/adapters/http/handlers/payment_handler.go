package handlers

import (
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/pagination"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PaymentHandler handles claim payouts and the payment ledger
type PaymentHandler struct {
	paymentService *services.PaymentService
	log            *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log.Named("http.payments"),
	}
}

// Create pays out an approved claim
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var req services.ClaimPaymentInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	payment, err := h.paymentService.RecordClaimPayment(c.UserContext(), actorFrom(c), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Created(c, "Payment recorded successfully", payment)
}

// List handles listing payments; members only see their own
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	payments, total, err := h.paymentService.List(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Paginated(c, "Payments retrieved successfully", payments, pagination.GetMeta(params, total))
}

// Get handles fetching a payment by ID
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	payment, err := h.paymentService.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Payment retrieved successfully", payment)
}

// Delete handles deleting a payment record (Admin/Staff)
func (h *PaymentHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.paymentService.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Payment deleted successfully", nil)
}
