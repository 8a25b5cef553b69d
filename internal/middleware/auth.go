// Package middleware provides authentication, logging, metrics and rate
// limiting middleware for the application.
package middleware

import (
	"strings"

	"ideanest/internal/models"
	"ideanest/internal/token"

	"github.com/gofiber/fiber/v2"
)

// Locals keys populated by the auth middleware.
const (
	LocalUserID   = "userID"
	LocalUserRole = "userRole"
)

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired enforces a valid bearer access token and stores the caller's
// user ID and role in locals.
func AuthRequired(tokens *token.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return models.RespondWithError(c,
				models.NewUnauthorizedError("Authorization header required"))
		}

		claims, err := tokens.VerifyAccess(raw)
		if err != nil {
			return models.RespondWithError(c,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserRole, claims.Role)
		return c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a bearer token is present
// but lets anonymous requests through. Used on routes where anonymous visitors
// participate via fingerprints (idea submission, like toggling).
func OptionalAuth(tokens *token.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return c.Next()
		}

		claims, err := tokens.VerifyAccess(raw)
		if err != nil {
			// A presented-but-invalid token is an error, not an anonymous fallthrough:
			// silently downgrading would give the caller a different like identity.
			return models.RespondWithError(c,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserRole, claims.Role)
		return c.Next()
	}
}

// RequireRole gates a route to callers whose role is in the allowed set.
// Must run after AuthRequired.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalUserRole).(models.Role)
		if !ok {
			return models.RespondWithError(c,
				models.NewUnauthorizedError("Authentication required"))
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return models.RespondWithError(c,
			models.NewForbiddenError("Insufficient permissions"))
	}
}

// AdminRequired gates a route to admins.
func AdminRequired() fiber.Handler {
	return RequireRole(models.RoleAdmin)
}

// ModeratorRequired gates a route to admins and moderators.
func ModeratorRequired() fiber.Handler {
	return RequireRole(models.RoleAdmin, models.RoleModerator)
}

// CurrentUserID returns the authenticated user ID from locals, 0 if anonymous.
func CurrentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals(LocalUserID).(uint); ok {
		return uid
	}
	return 0
}
