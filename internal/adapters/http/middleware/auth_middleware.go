package middleware

import (
	"errors"
	"strings"

	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LocalActor is the fiber.Ctx locals key holding the authenticated *domain.Actor.
const LocalActor = "actor"

// Authenticator turns an access token into an actor
type Authenticator interface {
	Authenticate(accessToken string) (*domain.Actor, error)
}

// AuthMiddleware requires a valid access token from the access_token cookie
// or an Authorization: Bearer header.
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := tokenFrom(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		actor, err := auth.Authenticate(accessToken)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		setActor(c, actor)
		return c.Next()
	}
}

// RoleMiddleware only lets the listed roles through. Services enforce the
// full policy; this rejects early on routes that are role-only.
func RoleMiddleware(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor.Anonymous() {
			return response.Unauthorized(c, "Unauthorized")
		}
		for _, r := range allowed {
			if actor.Role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c, domain.ErrForbidden.Message)
	}
}

// AdminOnly allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// StaffOnly allows admin and insurance_staff
func StaffOnly() fiber.Handler {
	return RoleMiddleware(domain.StaffRoles...)
}

// ActorFrom returns the actor set by AuthMiddleware, or nil
func ActorFrom(c *fiber.Ctx) *domain.Actor {
	actor, _ := c.Locals(LocalActor).(*domain.Actor)
	return actor
}

func setActor(c *fiber.Ctx, actor *domain.Actor) {
	c.Locals(LocalActor, actor)
	c.Locals("userID", actor.UserID)
	c.Locals("role", string(actor.Role))
}

func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
