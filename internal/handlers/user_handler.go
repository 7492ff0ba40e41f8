package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
)

type UserHandler struct {
	userService  *service.UserService
	mediaService *service.MediaService
}

func NewUserHandler(userService *service.UserService, mediaService *service.MediaService) *UserHandler {
	return &UserHandler{userService: userService, mediaService: mediaService}
}

// GetCurrentUser gets the authenticated user's profile
func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return fail(c, err, "get_user_failed")
	}

	// ETag allows clients to re-check frequently without re-downloading.
	etag := fmt.Sprintf("W/\"u-%d-%d\"", user.ID, user.UpdatedAt.UTC().UnixNano())
	c.Set("ETag", etag)
	c.Set("Cache-Control", "private, max-age=0, must-revalidate")

	if inm := strings.TrimSpace(c.Get("If-None-Match")); inm != "" {
		inmNorm := strings.Trim(strings.TrimPrefix(inm, "W/"), "\"")
		etagNorm := strings.Trim(strings.TrimPrefix(etag, "W/"), "\"")
		if strings.Contains(inmNorm, etagNorm) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	return httpx.OK(c, fiber.Map{"user": user.ToResponse()})
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}

	var input service.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), userID, input)
	if err != nil {
		return fail(c, err, "update_profile_failed")
	}
	return httpx.OK(c, fiber.Map{"user": user.ToResponse()})
}

// GetUser returns another user's public profile.
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user ID")
	}
	user, err := h.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "get_user_failed")
	}
	return httpx.OK(c, fiber.Map{"user": user.ToPublicResponse()})
}

func (h *UserHandler) MyStats(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	return h.stats(c, userID)
}

func (h *UserHandler) UserStats(c *fiber.Ctx) error {
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user ID")
	}
	return h.stats(c, id)
}

func (h *UserHandler) stats(c *fiber.Ctx, userID uint) error {
	stats, err := h.userService.Stats(c.UserContext(), userID)
	if err != nil {
		return fail(c, err, "stats_failed")
	}
	return httpx.OK(c, stats)
}

func (h *UserHandler) MyGenres(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	return h.genres(c, userID)
}

func (h *UserHandler) UserGenres(c *fiber.Ctx) error {
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user ID")
	}
	return h.genres(c, id)
}

func (h *UserHandler) genres(c *fiber.Ctx, userID uint) error {
	limit := c.QueryInt("limit", service.DefaultTopGenres)
	if limit <= 0 || limit > 20 {
		limit = service.DefaultTopGenres
	}
	genres, err := h.userService.TopGenres(c.UserContext(), userID, limit)
	if err != nil {
		return fail(c, err, "genres_failed")
	}
	return httpx.OK(c, fiber.Map{"genres": genres})
}

func (h *UserHandler) ListFavorites(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	favs, err := h.userService.ListFavorites(c.UserContext(), userID)
	if err != nil {
		return fail(c, err, "list_favorites_failed")
	}
	return httpx.OK(c, fiber.Map{"favorites": favs})
}

func (h *UserHandler) AddFavorite(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		TMDBID int `json:"tmdb_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	movie, err := h.userService.AddFavorite(c.UserContext(), userID, body.TMDBID)
	if err != nil {
		return fail(c, err, "add_favorite_failed")
	}
	return httpx.Created(c, fiber.Map{"movie": movie})
}

func (h *UserHandler) RemoveFavorite(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	movieID, err := httpx.ParamUint(c, "movieId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_movie_id", "Invalid movie ID")
	}
	if err := h.userService.RemoveFavorite(c.UserContext(), userID, movieID); err != nil {
		return fail(c, err, "remove_favorite_failed")
	}
	return httpx.OK(c, nil)
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	return h.upload(c, "avatar", h.mediaService.UploadAvatar)
}

func (h *UserHandler) UploadBanner(c *fiber.Ctx) error {
	return h.upload(c, "banner", h.mediaService.UploadBanner)
}
