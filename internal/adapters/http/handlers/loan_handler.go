package handlers

import (
	"strings"

	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/pagination"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HeaderIdempotencyKey lets a client retry a repayment without recording it twice
const HeaderIdempotencyKey = "Idempotency-Key"

// LoanHandler handles loans and their repayments
type LoanHandler struct {
	loanService *services.LoanService
	log         *zap.Logger
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService, log *zap.Logger) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		log:         log.Named("http.loans"),
	}
}

// Create handles issuing a loan (Admin/Staff)
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req services.CreateLoanInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	loan, err := h.loanService.Create(c.UserContext(), actorFrom(c), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Created(c, "Loan created successfully", loan)
}

// List handles listing loans; members only see their own
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	loans, total, err := h.loanService.List(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Paginated(c, "Loans retrieved successfully", loans, pagination.GetMeta(params, total))
}

// Get handles fetching a loan by ID
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	loan, err := h.loanService.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Loan retrieved successfully", loan)
}

// UpdateStatus handles an explicit loan status change (Admin/Staff)
func (h *LoanHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req services.UpdateLoanStatusInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	loan, err := h.loanService.UpdateStatus(c.UserContext(), actorFrom(c), id, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Loan status updated successfully", loan)
}

// Delete handles deleting a loan and its repayments (Admin/Staff)
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.loanService.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Loan deleted successfully", nil)
}

// RecordRepayment records a repayment on the loan in the path
func (h *LoanHandler) RecordRepayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.recordRepayment(c, func(*services.RepaymentInput) (uint, error) { return id, nil })
}

// RecordRepaymentByBody records a repayment whose loan is named by loan_id in the body
func (h *LoanHandler) RecordRepaymentByBody(c *fiber.Ctx) error {
	return h.recordRepayment(c, func(req *services.RepaymentInput) (uint, error) {
		if req.LoanID == 0 {
			return 0, domain.Validationf("loan_id is required")
		}
		return req.LoanID, nil
	})
}

func (h *LoanHandler) recordRepayment(c *fiber.Ctx, loanID func(*services.RepaymentInput) (uint, error)) error {
	var req services.RepaymentInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if key := strings.TrimSpace(c.Get(HeaderIdempotencyKey)); key != "" {
		if len(key) > 64 {
			return respondError(c, h.log, domain.Validationf("%s must be at most 64 characters", HeaderIdempotencyKey))
		}
		req.IdempotencyKey = key
	}

	id, err := loanID(&req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.loanService.RecordRepayment(c.UserContext(), actorFrom(c), id, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if result.Replayed {
		return response.Success(c, "Repayment already recorded", result)
	}
	return response.Created(c, "Repayment recorded successfully", result)
}

// ListRepayments lists the repayments of the loan in the path
func (h *LoanHandler) ListRepayments(c *fiber.Ctx) error {
	return h.listRepayments(c, "id")
}

// ListRepaymentsByLoanID serves the /repayments/:loan_id form
func (h *LoanHandler) ListRepaymentsByLoanID(c *fiber.Ctx) error {
	return h.listRepayments(c, "loan_id")
}

func (h *LoanHandler) listRepayments(c *fiber.Ctx, param string) error {
	id, err := paramID(c, param)
	if err != nil {
		return respondError(c, h.log, err)
	}

	payments, err := h.loanService.ListRepayments(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Repayments retrieved successfully", payments)
}
