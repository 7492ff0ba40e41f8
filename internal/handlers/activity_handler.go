package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
)

type ActivityHandler struct {
	activity *service.ActivityService
}

func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// GroupFeed supports ?limit= and ?before=<RFC3339> for paging.
func (h *ActivityHandler) GroupFeed(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return httpx.BadRequest(c, "invalid_before", "before must be an RFC3339 timestamp")
		}
		before = &t
	}
	items, err := h.activity.ListForGroup(c.UserContext(), userID, groupID, before, c.QueryInt("limit", 0))
	if err != nil {
		return fail(c, err, "group_activity_failed")
	}
	return httpx.OK(c, fiber.Map{"items": items})
}

func (h *ActivityHandler) MyFeed(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	items, err := h.activity.ListForUser(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return fail(c, err, "activity_failed")
	}
	return httpx.OK(c, fiber.Map{"items": items})
}
