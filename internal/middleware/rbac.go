package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
)

// RequireGroupRole checks the caller's membership in the group named by the
// :id route parameter before the handler runs. RoleMember admits any member;
// RoleOwner admits only the owner. The role is stored under "groupRole".
func RequireGroupRole(membership *service.Membership, role models.GroupRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := httpx.LocalUint(c, "userID")
		if err != nil {
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		}
		groupID, err := httpx.ParamUint(c, "id")
		if err != nil {
			return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
		}

		actual, err := membership.RoleOf(c.UserContext(), groupID, userID)
		if err != nil {
			logger.Get().WithError(err).WithField("group_id", groupID).Error("membership lookup failed")
			return httpx.Internal(c, "membership_lookup_failed")
		}
		if actual == "" {
			return httpx.Forbidden(c, "not_member", service.ErrNotMember.Error())
		}
		if role == models.RoleOwner && actual != models.RoleOwner {
			return httpx.Forbidden(c, "forbidden", service.ErrForbidden.Error())
		}

		c.Locals("groupID", groupID)
		c.Locals("groupRole", actual)
		return c.Next()
	}
}
