package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-sucursales/internal/application/dto"
	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	"github.com/jhoicas/pos-sucursales/pkg/jwt"
)

// Locals key de la identidad resuelta en Fiber.
const LocalIdentity = "identity"

// AuthMiddleware valida el Bearer Token JWT y deja la identidad tipada en c.Locals.
// Token ausente, malformado, expirado o con firma inválida → 401, sin distinguir
// la causa en la respuesta.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		identity, ok := jwt.Resolve(jwtSecret, tokenString)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalIdentity, identity)
		return c.Next()
	}
}

// GetIdentity devuelve la identidad del contexto (después del middleware de auth).
// nil si la ruta no pasó por AuthMiddleware.
func GetIdentity(c *fiber.Ctx) *auth.Identity {
	v := c.Locals(LocalIdentity)
	if v == nil {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

// RequirePermission corta con 403 si la identidad no tiene el permiso.
// Los admin pasan siempre (bypass incondicional del evaluador).
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := GetIdentity(c)
		if identity == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "identidad no resuelta"})
		}
		if !identity.HasPermission(permission) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "permiso insuficiente: " + permission})
		}
		return c.Next()
	}
}
