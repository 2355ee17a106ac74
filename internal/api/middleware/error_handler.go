package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code := "HTTP_ERROR"
			if fiberErr.Code == fiber.StatusRequestEntityTooLarge {
				code = domain.ErrImageTooLarge.Code
			}
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": fiberErr.Message,
				},
			})
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.String("path", c.Path()),
					slog.Any("error", appErr.Err),
				)
			}

			return c.Status(appErr.StatusCode).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    appErr.Code,
					"message": appErr.Message,
				},
			})
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    domain.ErrInternal.Code,
				"message": domain.ErrInternal.Message,
			},
		})
	}
}
