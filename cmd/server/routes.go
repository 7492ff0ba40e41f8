package main

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/websocket/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/config"
	"github.com/mauromolina/mmovienight-sub000/internal/handlers"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/middleware"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
)

type routeHandlers struct {
	membership *service.Membership
	auth       *handlers.AuthHandler
	users      *handlers.UserHandler
	media      *handlers.MediaHandler
	groups     *handlers.GroupHandler
	movies     *handlers.MovieHandler
	watchlist  *handlers.WatchlistHandler
	activity   *handlers.ActivityHandler
	websocket  *handlers.WebSocketHandler
}

// perUserLimiter keys the limiter on the authenticated user, falling back to IP.
func perUserLimiter(prefix string, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if uid, err := httpx.LocalUint(c, "userID"); err == nil {
				return prefix + ":" + strconv.FormatUint(uint64(uid), 10)
			}
			return prefix + ":" + c.IP()
		},
	})
}

func registerRoutes(app *fiber.App, cfg *config.Config, h routeHandlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "MovieNight is running",
		})
	})

	api := app.Group("/api", middleware.OriginAllowed(cfg.AllowedOrigins))

	// Public routes
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Get("/csrf", h.auth.CSRF)
	auth.Post("/register", h.auth.Register)
	auth.Post("/login", h.auth.Login)
	auth.Post("/refresh", h.auth.Refresh)
	auth.Post("/logout", middleware.CSRFRequired(cfg.CSRFMode, cfg.AllowedOrigins), h.auth.Logout)
	api.Get("/invites/:code", h.groups.GetInvitePreview)
	api.Get("/media/*", h.media.Get)

	protected := api.Group("", middleware.AuthRequired(cfg.JWTSecret), middleware.CSRFRequired(cfg.CSRFMode, cfg.AllowedOrigins))
	uploads := perUserLimiter("upload", 10, 10*time.Minute)

	me := protected.Group("/me")
	me.Get("/", h.users.GetCurrentUser)
	me.Put("/", h.users.UpdateProfile)
	me.Get("/stats", h.users.MyStats)
	me.Get("/genres", h.users.MyGenres)
	me.Get("/activity", h.activity.MyFeed)
	me.Post("/avatar", uploads, h.users.UploadAvatar)
	me.Delete("/avatar", h.users.DeleteAvatar)
	me.Post("/banner", uploads, h.users.UploadBanner)
	me.Get("/favorites", h.users.ListFavorites)
	me.Post("/favorites", h.users.AddFavorite)
	me.Delete("/favorites/:movieId", h.users.RemoveFavorite)

	protected.Get("/users/:id", h.users.GetUser)
	protected.Get("/users/:id/stats", h.users.UserStats)
	protected.Get("/users/:id/genres", h.users.UserGenres)

	protected.Get("/movies/search", perUserLimiter("search", 60, time.Minute), h.movies.Search)
	protected.Get("/movies/:tmdbId", h.movies.GetMovie)

	protected.Post("/invites/redeem", perUserLimiter("redeem", 30, time.Minute), h.groups.RedeemInvite)

	groups := protected.Group("/groups")
	groups.Post("/", h.groups.CreateGroup)
	groups.Get("/", h.groups.GetMyGroups)

	member := middleware.RequireGroupRole(h.membership, models.RoleMember)
	owner := middleware.RequireGroupRole(h.membership, models.RoleOwner)

	groups.Get("/:id", member, h.groups.GetGroup)
	groups.Put("/:id", owner, h.groups.UpdateGroup)
	groups.Delete("/:id", owner, h.groups.DeleteGroup)
	groups.Post("/:id/cover", owner, uploads, h.groups.UploadCover)
	groups.Post("/:id/leave", member, h.groups.LeaveGroup)
	groups.Get("/:id/members", member, h.groups.GetGroupMembers)
	groups.Delete("/:id/members/:userId", owner, h.groups.RemoveMember)
	groups.Get("/:id/invite-codes", owner, h.groups.ListInviteCodes)
	groups.Post("/:id/invite-codes", owner, h.groups.CreateInviteCode)
	groups.Delete("/:id/invite-codes/:codeId", owner, h.groups.DeactivateInviteCode)

	groups.Get("/:id/movies", member, h.movies.ListGroupMovies)
	groups.Post("/:id/movies", member, h.movies.AddGroupMovie)
	groups.Get("/:id/movies/:movieId", member, h.movies.GetGroupMovie)
	groups.Delete("/:id/movies/:movieId", member, h.movies.RemoveGroupMovie)
	groups.Get("/:id/movies/:movieId/ratings", member, h.movies.ListRatings)
	groups.Put("/:id/movies/:movieId/ratings", member, h.movies.Rate)
	groups.Delete("/:id/movies/:movieId/ratings", member, h.movies.DeleteRating)

	groups.Get("/:id/watchlist", member, h.watchlist.List)
	groups.Post("/:id/watchlist", member, h.watchlist.Add)
	groups.Get("/:id/watchlist/pick", member, h.watchlist.Pick)
	groups.Delete("/:id/watchlist/:itemId", member, h.watchlist.Remove)
	groups.Post("/:id/watchlist/:itemId/watched", member, h.watchlist.MarkWatched)

	groups.Get("/:id/activity", member, h.activity.GroupFeed)

	app.Use(
		"/ws",
		middleware.OriginAllowed(cfg.AllowedOrigins),
		middleware.AuthRequired(cfg.JWTSecret),
		h.websocket.Upgrade,
	)
	app.Get("/ws", websocket.New(h.websocket.HandleWebSocket))
}
