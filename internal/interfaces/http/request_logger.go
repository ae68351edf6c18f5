package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-sucursales/pkg/logger"
)

// RequestLogger registra cada petición con método, ruta, status, latencia y el
// usuario autenticado cuando la ruta pasó por AuthMiddleware. Los errores que
// llegan hasta aquí ya fueron mapeados a status por los handlers.
func RequestLogger(log *logger.Logger) fiber.Handler {
	httpLog := log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		event := httpLog.Info()
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			event = httpLog.Error()
		} else if status >= fiber.StatusBadRequest {
			event = httpLog.Warn()
		}
		if identity := GetIdentity(c); identity != nil {
			event = event.Str("user_id", identity.UserID)
			if identity.Branch != "" {
				event = event.Str("branch", identity.Branch)
			}
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}
