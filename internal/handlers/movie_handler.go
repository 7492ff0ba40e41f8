package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
)

type MovieHandler struct {
	catalog *service.CatalogService
	ledger  *service.LedgerService
	ratings *service.RatingService
}

func NewMovieHandler(catalog *service.CatalogService, ledger *service.LedgerService, ratings *service.RatingService) *MovieHandler {
	return &MovieHandler{catalog: catalog, ledger: ledger, ratings: ratings}
}

func (h *MovieHandler) Search(c *fiber.Ctx) error {
	resp, err := h.catalog.Search(c.UserContext(), c.Query("q"), c.QueryInt("page", 1))
	if err != nil {
		return fail(c, err, "movie_search_failed")
	}
	return httpx.OK(c, resp)
}

func (h *MovieHandler) GetMovie(c *fiber.Ctx) error {
	tmdbID, err := strconv.Atoi(c.Params("tmdbId"))
	if err != nil {
		return httpx.BadRequest(c, "invalid_tmdb_id", "Invalid movie ID")
	}
	movie, err := h.catalog.Resolve(c.UserContext(), tmdbID)
	if err != nil {
		return fail(c, err, "get_movie_failed")
	}
	return httpx.OK(c, fiber.Map{"movie": movie})
}

type AddMovieRequest struct {
	TMDBID        int                  `json:"tmdb_id"`
	WatchedAt     *time.Time           `json:"watched_at"`
	ScreeningType models.ScreeningType `json:"screening_type"`
	AttendeeIDs   []uint               `json:"attendee_ids"`
}

func (r AddMovieRequest) input() service.AddMovieInput {
	return service.AddMovieInput{
		WatchedAt:     r.WatchedAt,
		ScreeningType: r.ScreeningType,
		AttendeeIDs:   r.AttendeeIDs,
	}
}

func (h *MovieHandler) ListGroupMovies(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	entries, err := h.ledger.List(c.UserContext(), userID, groupID, c.Query("sort", service.SortRecent))
	if err != nil {
		return fail(c, err, "list_group_movies_failed")
	}
	return httpx.OK(c, fiber.Map{"movies": entries})
}

func (h *MovieHandler) AddGroupMovie(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	var req AddMovieRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	entry, err := h.ledger.AddMovie(c.UserContext(), userID, groupID, req.TMDBID, req.input())
	if err != nil {
		return fail(c, err, "add_group_movie_failed")
	}
	return httpx.Created(c, fiber.Map{"movie": entry})
}

func (h *MovieHandler) GetGroupMovie(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	movieID, err := httpx.ParamUint(c, "movieId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_movie_id", "Invalid movie ID")
	}
	detail, err := h.ledger.Get(c.UserContext(), userID, groupID, movieID)
	if err != nil {
		return fail(c, err, "get_group_movie_failed")
	}
	return httpx.OK(c, fiber.Map{"movie": detail})
}

func (h *MovieHandler) RemoveGroupMovie(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	movieID, err := httpx.ParamUint(c, "movieId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_movie_id", "Invalid movie ID")
	}
	if err := h.ledger.RemoveMovie(c.UserContext(), userID, groupID, movieID); err != nil {
		return fail(c, err, "remove_group_movie_failed")
	}
	return httpx.OK(c, nil)
}

func (h *MovieHandler) ListRatings(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	movieID, err := httpx.ParamUint(c, "movieId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_movie_id", "Invalid movie ID")
	}
	ratings, agg, err := h.ratings.ListRatings(c.UserContext(), groupID, movieID, userID)
	if err != nil {
		return fail(c, err, "list_ratings_failed")
	}
	return httpx.OK(c, fiber.Map{"ratings": ratings, "aggregate": agg})
}

type RateRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (h *MovieHandler) Rate(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	movieID, err := httpx.ParamUint(c, "movieId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_movie_id", "Invalid movie ID")
	}
	var req RateRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	rating, err := h.ratings.Rate(c.UserContext(), userID, groupID, movieID, req.Score, req.Comment)
	if err != nil {
		return fail(c, err, "rate_failed")
	}
	agg, err := h.ratings.Aggregate(c.UserContext(), groupID, movieID, userID)
	if err != nil {
		return fail(c, err, "rate_failed")
	}
	return httpx.OK(c, fiber.Map{"rating": rating, "aggregate": agg})
}

func (h *MovieHandler) DeleteRating(c *fiber.Ctx) error {
	userID, groupID, ok, resp := callerAndGroup(c)
	if !ok {
		return resp
	}
	movieID, err := httpx.ParamUint(c, "movieId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_movie_id", "Invalid movie ID")
	}
	if err := h.ratings.DeleteRating(c.UserContext(), userID, groupID, movieID); err != nil {
		return fail(c, err, "delete_rating_failed")
	}
	return httpx.OK(c, nil)
}
