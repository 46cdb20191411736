package middleware

import (
	"strings"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/core/domain"
	"volunteerhub/internal/core/services"
	"volunteerhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the bearer session and loads the actor.
// The token is opaque; validation is a server-side session lookup, so a
// revoked session is rejected on the very next request.
func AuthMiddleware(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "UNAUTHENTICATED", "Access token required")
		}

		user, err := authService.Validate(c.Context(), accessToken)
		if err != nil {
			return response.Unauthorized(c, "UNAUTHENTICATED", "Invalid or expired session")
		}

		c.Locals("user", user)
		c.Locals("actor", user.Actor())
		c.Locals("token", accessToken)

		return c.Next()
	}
}

// RequirePermission gates a route on a permission, applying the resolver
// rules (superadmin/developer bypass, admin-only permission sets,
// manage_volunteers implying manage_task_assignment)
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := c.Locals("actor").(domain.Actor)
		if !ok {
			return response.Unauthorized(c, "UNAUTHENTICATED", "Unauthorized")
		}

		if !domain.Authorize(actor, permission) {
			return response.Forbidden(c, "FORBIDDEN", "You don't have permission to access this resource")
		}

		return c.Next()
	}
}

// RequireRole gates a route on an explicit role list
func RequireRole(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := c.Locals("actor").(domain.Actor)
		if !ok {
			return response.Unauthorized(c, "UNAUTHENTICATED", "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if actor.Role == allowed {
				return c.Next()
			}
		}

		return response.Forbidden(c, "FORBIDDEN", "You don't have permission to access this resource")
	}
}

// CurrentUser returns the authenticated user set by AuthMiddleware
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// CurrentActor returns the authorization view set by AuthMiddleware
func CurrentActor(c *fiber.Ctx) domain.Actor {
	actor, _ := c.Locals("actor").(domain.Actor)
	return actor
}

// extractToken reads the bearer token from the cookie or the
// Authorization header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}

	authHeader := c.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
