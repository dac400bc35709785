package handlers

import (
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReportHandler serves dashboard aggregates
type ReportHandler struct {
	reportService *services.ReportService
	log           *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		log:           log.Named("http.reports"),
	}
}

// Summary returns system-wide counts for staff dashboards
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.reportService.Summary(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Summary retrieved successfully", summary)
}

// Me returns the caller's member dashboard
func (h *ReportHandler) Me(c *fiber.Ctx) error {
	overview, err := h.reportService.MemberOverview(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Overview retrieved successfully", overview)
}
