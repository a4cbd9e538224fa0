package api

import (
	"github.com/gofiber/fiber/v3"

	"taskforce/internal/follows"
	"taskforce/internal/middleware"
	"taskforce/internal/models"
)

// FollowHandler toggles follow edges.
type FollowHandler struct {
	svc *follows.Service
}

// NewFollowHandler creates a new follow handler.
func NewFollowHandler(svc *follows.Service) *FollowHandler {
	return &FollowHandler{svc: svc}
}

type followRequest struct {
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
}

// Follow handles POST /api/follow.
func (h *FollowHandler) Follow(c fiber.Ctx) error {
	var req followRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Follow(c.Context(), middleware.CurrentUser(c), req.TargetType, req.TargetID); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.Map{"following": true})
}

// Unfollow handles DELETE /api/follow.
func (h *FollowHandler) Unfollow(c fiber.Ctx) error {
	var req followRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Unfollow(c.Context(), middleware.CurrentUser(c), req.TargetType, req.TargetID); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.Map{"following": false})
}

// Status handles GET /api/follow?targetType=&targetId=.
func (h *FollowHandler) Status(c fiber.Ctx) error {
	targetType, targetID := c.Query("targetType"), c.Query("targetId")
	following, err := h.svc.IsFollowing(c.Context(), middleware.CurrentUser(c), targetType, targetID)
	if err != nil {
		return fail(c, err)
	}
	count, err := h.svc.FollowerCount(c.Context(), targetType, targetID)
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.Map{"following": following, "followers": count})
}

// Following handles GET /api/following.
func (h *FollowHandler) Following(c fiber.Ctx) error {
	edges, err := h.svc.Following(c.Context(), middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	if edges == nil {
		edges = []models.Follow{}
	}
	return jsonSuccess(c, edges)
}
