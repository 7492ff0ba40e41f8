package handlers

import (
	"math/rand/v2"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
)

type WatchlistHandler struct {
	watchlist *service.WatchlistService
}

func NewWatchlistHandler(watchlist *service.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

type AddWatchlistRequest struct {
	TMDBID int    `json:"tmdb_id"`
	Reason string `json:"reason"`
}

func (h *WatchlistHandler) List(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	items, err := h.watchlist.List(c.UserContext(), userID, groupID)
	if err != nil {
		return fail(c, err, "list_watchlist_failed")
	}
	return httpx.OK(c, fiber.Map{"items": items})
}

func (h *WatchlistHandler) Add(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	var req AddWatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	item, err := h.watchlist.Add(c.UserContext(), userID, groupID, req.TMDBID, req.Reason)
	if err != nil {
		return fail(c, err, "add_watchlist_failed")
	}
	return httpx.Created(c, fiber.Map{"item": item})
}

func (h *WatchlistHandler) Remove(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	itemID, err := httpx.ParamUint(c, "itemId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_item_id", "Invalid item ID")
	}
	if err := h.watchlist.Remove(c.UserContext(), userID, groupID, itemID); err != nil {
		return fail(c, err, "remove_watchlist_failed")
	}
	return httpx.OK(c, nil)
}

func (h *WatchlistHandler) MarkWatched(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	itemID, err := httpx.ParamUint(c, "itemId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_item_id", "Invalid item ID")
	}
	var req AddMovieRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
		}
	}
	entry, err := h.watchlist.MarkWatched(c.UserContext(), userID, groupID, itemID, req.input())
	if err != nil {
		return fail(c, err, "mark_watched_failed")
	}
	return httpx.Created(c, fiber.Map{"movie": entry})
}

// Pick spins the roulette. Without ?seed= a random seed is drawn; the seed
// is echoed so a client can replay the spin.
func (h *WatchlistHandler) Pick(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	seed := rand.Int64()
	if raw := c.Query("seed"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return httpx.BadRequest(c, "invalid_seed", "seed must be an integer")
		}
		seed = parsed
	}
	item, err := h.watchlist.Pick(c.UserContext(), userID, groupID, seed)
	if err != nil {
		return fail(c, err, "pick_failed")
	}
	return httpx.OK(c, fiber.Map{"item": item, "seed": strconv.FormatInt(seed, 10)})
}
