package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/audit"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

// AdminAudit records every admin request after it completes. It must run
// after AdminAuth so the subject is known.
func AdminAudit(logger audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		entry := audit.Entry{
			Action:    auditAction(c.Route().Path),
			Target:    c.Params("uid", c.Params("id")),
			IPAddress: c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		}
		entry.Subject, _ = GetAdminSubject(c)

		if err != nil {
			status = fiber.StatusInternalServerError
			var appErr *domain.AppError
			var fiberErr *fiber.Error
			switch {
			case errors.As(err, &appErr):
				status = appErr.StatusCode
			case errors.As(err, &fiberErr):
				status = fiberErr.Code
			}
			entry.Error = err.Error()
		}
		entry.Status = status
		entry.Success = err == nil && status < fiber.StatusBadRequest

		if query := c.Context().QueryArgs(); query.Len() > 0 {
			entry.Metadata = make(map[string]string, query.Len())
			query.VisitAll(func(k, v []byte) {
				if string(k) == "token" {
					return
				}
				entry.Metadata[string(k)] = string(v)
			})
		}

		_ = logger.Log(c.UserContext(), entry)

		return err
	}
}

func auditAction(route string) audit.Action {
	switch {
	case strings.HasSuffix(route, "/users"):
		return audit.ActionUsersListed
	case strings.HasSuffix(route, "/users/:uid"):
		return audit.ActionUserViewed
	case strings.HasSuffix(route, "/analytics"):
		return audit.ActionAnalyticsViewed
	case strings.HasSuffix(route, "/similar"):
		return audit.ActionSimilarSearched
	case strings.HasSuffix(route, "/live"):
		return audit.ActionLiveConnected
	default:
		return audit.ActionUnknown
	}
}
