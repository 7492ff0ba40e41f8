package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
)

type GroupHandler struct {
	groupService  *service.GroupService
	inviteService *service.InviteService
	mediaService  *service.MediaService
}

func NewGroupHandler(groupService *service.GroupService, inviteService *service.InviteService, mediaService *service.MediaService) *GroupHandler {
	return &GroupHandler{groupService: groupService, inviteService: inviteService, mediaService: mediaService}
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// callerAndGroup reads the authenticated user and the :id group parameter.
// ok is false when a response has already been written.
func callerAndGroup(c *fiber.Ctx) (userID, groupID uint, ok bool, resp error) {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return 0, 0, false, unauthorized(c)
	}
	groupID, err = httpx.ParamUint(c, "id")
	if err != nil {
		return 0, 0, false, httpx.BadRequest(c, "invalid_group_id", "Invalid group ID")
	}
	return userID, groupID, true, nil
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	group, err := h.groupService.Create(c.UserContext(), userID, req.Name, req.Description)
	if err != nil {
		return fail(c, err, "create_group_failed")
	}
	return httpx.Created(c, fiber.Map{"group": group})
}

func (h *GroupHandler) GetMyGroups(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	groups, err := h.groupService.ListMine(c.UserContext(), userID)
	if err != nil {
		return fail(c, err, "list_groups_failed")
	}
	return httpx.OK(c, fiber.Map{"groups": groups})
}

func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	group, err := h.groupService.Get(c.UserContext(), userID, groupID)
	if err != nil {
		return fail(c, err, "get_group_failed")
	}
	return httpx.OK(c, fiber.Map{"group": group})
}

func (h *GroupHandler) UpdateGroup(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	var input service.UpdateGroupInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	group, err := h.groupService.UpdateSettings(c.UserContext(), userID, groupID, input)
	if err != nil {
		return fail(c, err, "update_group_failed")
	}
	return httpx.OK(c, fiber.Map{"group": group})
}

func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	if err := h.groupService.Delete(c.UserContext(), userID, groupID); err != nil {
		return fail(c, err, "delete_group_failed")
	}
	return httpx.OK(c, nil)
}

func (h *GroupHandler) UploadCover(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	if !h.mediaService.Configured() {
		return httpx.Unavailable(c, "storage_not_configured", "Storage not configured")
	}
	fileHeader, err := c.FormFile("cover")
	if err != nil {
		return httpx.BadRequest(c, "missing_cover", "cover file is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_cover", "Invalid cover upload")
	}
	defer f.Close()

	group, err := h.mediaService.UploadCover(c.UserContext(), userID, groupID, f)
	if err != nil {
		return fail(c, err, "cover_upload_failed")
	}
	return httpx.OK(c, fiber.Map{"group": group})
}

func (h *GroupHandler) LeaveGroup(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	if err := h.groupService.Leave(c.UserContext(), userID, groupID); err != nil {
		return fail(c, err, "leave_group_failed")
	}
	return httpx.OK(c, nil)
}

func (h *GroupHandler) GetGroupMembers(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	members, err := h.groupService.Members(c.UserContext(), userID, groupID)
	if err != nil {
		return fail(c, err, "list_members_failed")
	}
	return httpx.OK(c, fiber.Map{"members": members})
}

func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	targetID, err := httpx.ParamUint(c, "userId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user ID")
	}
	if err := h.groupService.RemoveMember(c.UserContext(), userID, groupID, targetID); err != nil {
		return fail(c, err, "remove_member_failed")
	}
	return httpx.OK(c, nil)
}

type CreateInviteCodeRequest struct {
	MaxUses   *int       `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *GroupHandler) CreateInviteCode(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	var req CreateInviteCodeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
		}
	}
	code, created, err := h.inviteService.GenerateCode(c.UserContext(), userID, groupID, service.GenerateCodeOptions{
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return fail(c, err, "create_invite_code_failed")
	}
	if !created {
		return httpx.OK(c, fiber.Map{"invite_code": code})
	}
	return httpx.Created(c, fiber.Map{"invite_code": code})
}

func (h *GroupHandler) ListInviteCodes(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	codes, err := h.inviteService.ListCodes(c.UserContext(), userID, groupID)
	if err != nil {
		return fail(c, err, "list_invite_codes_failed")
	}
	return httpx.OK(c, fiber.Map{"invite_codes": codes})
}

func (h *GroupHandler) DeactivateInviteCode(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	codeID, err := httpx.ParamUint(c, "codeId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_code_id", "Invalid code ID")
	}
	if err := h.inviteService.Deactivate(c.UserContext(), userID, groupID, codeID); err != nil {
		return fail(c, err, "deactivate_invite_code_failed")
	}
	return httpx.OK(c, nil)
}

// GetInvitePreview is public: it only reveals the group's name, description,
// cover and member count.
func (h *GroupHandler) GetInvitePreview(c *fiber.Ctx) error {
	preview, err := h.inviteService.Preview(c.UserContext(), c.Params("code"))
	if err != nil {
		return fail(c, err, "invite_preview_failed")
	}
	return httpx.OK(c, fiber.Map{"group": preview})
}

func (h *GroupHandler) RedeemInvite(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	result, err := h.inviteService.Redeem(c.UserContext(), body.Code, userID)
	if err != nil {
		return fail(c, err, "redeem_invite_failed")
	}
	if result.Status == service.RedeemJoined {
		return httpx.Created(c, result)
	}
	return httpx.OK(c, result)
}
