package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/admin"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

// AdminHandler serves the dashboard endpoints
type AdminHandler struct {
	service admin.DashboardService
}

func NewAdminHandler(service admin.DashboardService) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListUsers GET /api/admin/users?limit=&offset=
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	params := admin.ListParams{
		Limit:  c.QueryInt("limit", admin.DefaultUserLimit),
		Offset: c.QueryInt("offset", 0),
	}.Normalize()

	users, err := h.service.ListUsers(c.UserContext(), params)
	if err != nil {
		return err
	}

	return c.JSON(admin.ListResponse{
		Data: users,
		Pagination: admin.PaginationMeta{
			Count:  len(users),
			Limit:  params.Limit,
			Offset: params.Offset,
		},
	})
}

// GetUser GET /api/admin/users/:uid
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	uid := strings.TrimSpace(c.Params("uid"))
	if uid == "" {
		return domain.ErrBadRequest.WithMessage("uid is required")
	}

	detail, err := h.service.GetUserDetail(c.UserContext(), uid)
	if err != nil {
		return err
	}

	return c.JSON(detail)
}

// Analytics GET /api/admin/analytics?ageRange=18-30&emotion=happy&dateRange=7&fresh=true
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	filter, err := domain.ParseAnalyticsFilter(
		c.Query("ageRange"),
		c.Query("emotion"),
		c.Query("dateRange"),
	)
	if err != nil {
		return err
	}

	analytics, err := h.service.Analytics(c.UserContext(), filter, c.QueryBool("fresh", false))
	if err != nil {
		return err
	}

	return c.JSON(analytics)
}

// SimilarAnalyses GET /api/admin/analyses/:id/similar?limit=5
func (h *AdminHandler) SimilarAnalyses(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithMessage("id must be a UUID")
	}

	similar, err := h.service.SimilarAnalyses(c.UserContext(), id, c.QueryInt("limit", admin.DefaultSimilarLimit))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"reference_id": id,
		"data":         similar,
	})
}
