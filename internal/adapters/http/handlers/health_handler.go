package handlers

import (
	"github.com/Taistois/mims/internal/config"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Version is set at build time with -ldflags
var Version = "dev"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db   *gorm.DB
	mode string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, mode string) *HealthHandler {
	return &HealthHandler{db: db, mode: mode}
}

// Root handles root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "MIMS API v1 is running",
		"mode":    h.mode,
		"version": Version,
	})
}

// HealthCheck reports API and database health. An unreachable database
// answers 503 so load balancers take the instance out.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	overall, dbStatus, status := "ok", "healthy", fiber.StatusOK
	if err := config.HealthCheck(h.db); err != nil {
		overall, dbStatus, status = "degraded", "unhealthy", fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
		},
	})
}

// APIInfo handles API v1 info
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "MIMS API v1",
		"version": Version,
	})
}
