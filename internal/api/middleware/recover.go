package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					slog.Any("panic", r),
					slog.String("path", c.Path()),
					slog.String("method", c.Method()),
				)

				_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": fiber.Map{
						"code":    domain.ErrInternal.Code,
						"message": domain.ErrInternal.Message,
					},
				})
			}
		}()
		return c.Next()
	}
}
