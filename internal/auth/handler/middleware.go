package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/arunabh-a/Colbin-Assignment/internal/auth/domain"
	authconstant "github.com/arunabh-a/Colbin-Assignment/pkg/constant"
)

const identityLocalKey = "identity"

// RequireAuth is the request gate. It pulls the access token from the
// Authorization header or the session cookie, validates it, and attaches the
// resolved identity to the request. Every failure mode — absent, malformed,
// forged, expired — answers the same 401 so callers learn nothing about the
// token they presented.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(authconstant.AccessTokenCookie)
		}
		if token == "" {
			return unauthorized(c)
		}

		claims, err := h.tokenService.Validate(token)
		if err != nil {
			return unauthorized(c)
		}

		c.Locals(identityLocalKey, domain.Identity{
			UserID: claims.UserID,
			Role:   claims.Role,
		})

		return c.Next()
	}
}

// RequireRole stacks on RequireAuth and checks the role claim. It does not
// consult the store; the claim is authoritative for the token's lifetime.
func (h *AuthHandler) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := c.Locals(identityLocalKey).(domain.Identity)
		if !ok {
			return unauthorized(c)
		}
		if identity.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}

		return c.Next()
	}
}

// IdentityFromCtx returns the identity attached by RequireAuth. Handlers
// behind the gate may assume it is present.
func IdentityFromCtx(c *fiber.Ctx) domain.Identity {
	identity, _ := c.Locals(identityLocalKey).(domain.Identity)
	return identity
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return header[len(prefix):]
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}
