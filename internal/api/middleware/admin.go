package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/admin"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

const (
	// LocalAdminSubject is the key to retrieve the admin subject from context
	LocalAdminSubject = "admin_subject"
	// LocalAdminRole is the key to retrieve the admin role from context
	LocalAdminRole = "admin_role"
)

// AdminAuthDependencies contains dependencies for admin authentication
type AdminAuthDependencies struct {
	JWTService *admin.JWTService
	Logger     *slog.Logger
}

// AdminAuth requires a valid admin JWT, sent as a Bearer token or, for
// websocket upgrades, as the token query parameter.
func AdminAuth(deps AdminAuthDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			deps.Logger.Debug("missing admin token", "path", c.Path())
			return domain.ErrUnauthorized
		}

		claims, err := deps.JWTService.ValidateToken(token)
		if err != nil {
			deps.Logger.Warn("invalid admin token", "error", err, "ip", c.IP())
			return domain.ErrUnauthorized
		}

		if claims.Role != admin.RoleAdmin {
			deps.Logger.Warn("insufficient privileges", "role", claims.Role, "required", admin.RoleAdmin)
			return domain.ErrForbidden
		}

		c.Locals(LocalAdminSubject, claims.Subject)
		c.Locals(LocalAdminRole, claims.Role)

		return c.Next()
	}
}

// GetAdminSubject retrieves the authenticated admin subject from context
func GetAdminSubject(c *fiber.Ctx) (string, error) {
	subject, ok := c.Locals(LocalAdminSubject).(string)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return subject, nil
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
