package handlers

import (
	"strconv"

	"github.com/Taistois/mims/internal/adapters/http/middleware"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/pkg/pagination"
	"github.com/Taistois/mims/internal/pkg/response"
	"github.com/Taistois/mims/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusOf maps an error kind to its HTTP status
var statusOf = map[domain.Kind]int{
	domain.KindUnauthenticated: fiber.StatusUnauthorized,
	domain.KindForbidden:       fiber.StatusForbidden,
	domain.KindNotFound:        fiber.StatusNotFound,
	domain.KindValidation:      fiber.StatusBadRequest,
	domain.KindConflict:        fiber.StatusConflict,
	domain.KindTransient:       fiber.StatusServiceUnavailable,
	domain.KindUnexpected:      fiber.StatusInternalServerError,
}

// respondError renders err in the standard envelope. Unexpected and transient
// errors are logged with the request; their detail never reaches the client.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	kind := domain.KindOf(err)
	status, ok := statusOf[kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	switch kind {
	case domain.KindUnexpected:
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals("requestid")),
			zap.Error(err))
	case domain.KindTransient:
		log.Warn("request failed, retryable",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return response.ErrorWithCode(c, status, string(kind), domain.PublicMessage(err))
}

// bind parses the JSON body into dst and runs its validate tags
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return domain.Validationf("%s", err.Error())
	}
	return nil
}

// paramID reads a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, domain.Validationf("invalid %s", name)
	}
	return uint(id), nil
}

// listParams reads page/limit query parameters
func listParams(c *fiber.Ctx) (*pagination.Params, repositories.ListOptions) {
	p := pagination.GetParams(c)
	return p, repositories.ListOptions{Offset: p.Offset, Limit: p.Limit}
}

func actorFrom(c *fiber.Ctx) *domain.Actor {
	return middleware.ActorFrom(c)
}
