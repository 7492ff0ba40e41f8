package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/mauromolina/mmovienight-sub000/internal/cache"
	"github.com/mauromolina/mmovienight-sub000/internal/config"
	"github.com/mauromolina/mmovienight-sub000/internal/events"
	"github.com/mauromolina/mmovienight-sub000/internal/handlers"
	"github.com/mauromolina/mmovienight-sub000/internal/handlers/ws"
	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/middleware"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
	"github.com/mauromolina/mmovienight-sub000/internal/storage"
	"github.com/mauromolina/mmovienight-sub000/internal/tmdb"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		logger.Get().WithError(err).Fatal("invalid configuration")
	}
	logger.Init(cfg.LogLevel)
	log := logger.Get()
	if !dotenv {
		log.Info("No .env file found, using system environment variables")
	}

	app := fiber.New(fiber.Config{
		AppName: "MovieNight",
		// Image uploads are capped at 5MB; leave room for multipart overhead.
		BodyLimit: 8 * 1024 * 1024,
	})

	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + middleware.CSRFHeader,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: cfg.AllowedOrigins != "" && cfg.AllowedOrigins != "*",
	}))

	db, err := repository.InitDB(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisCache := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	var (
		movieCache *cache.MovieCache
		presence   ws.Presence
	)
	if err := redisCache.Ping(ctx); err != nil {
		log.WithError(err).Warn("Redis connection failed, running without movie cache")
		_ = redisCache.Close()
		redisCache = nil
	} else {
		movieCache = cache.NewMovieCache(redisCache)
		presence = cache.NewPresenceCache(redisCache)
		log.Info("Redis cache connected")
	}

	// Uploads are optional; media endpoints answer 503 without a store.
	var (
		objects      service.ObjectStore
		objectReader handlers.ObjectReader
		remover      service.ObjectRemover
	)
	if s3cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.WithError(err).Warn("S3 storage not configured")
	} else if st, err := storage.NewS3Storage(s3cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize S3 storage")
	} else if err := st.EnsureBucket(ctx); err != nil {
		log.WithError(err).Warn("S3 bucket unavailable")
	} else {
		objects, objectReader, remover = st, st, st
		log.WithField("bucket", s3cfg.Bucket).Info("S3 storage initialized")
	}
	cancel()

	tmdbClient := tmdb.NewClient(tmdb.ClientConfig{
		BaseURL:    cfg.TMDB.BaseURL,
		APIKey:     cfg.TMDB.APIKey,
		Language:   cfg.TMDB.Language,
		Timeout:    cfg.TMDB.Timeout,
		RatePerSec: cfg.TMDB.RatePerSec,
		Logger:     log,
	})
	if cfg.TMDB.APIKey == "" {
		log.Warn("TMDB_API_KEY is empty, movie lookups will fail")
	}

	publisher := events.NewPublisher(cfg.AMQPURL)
	hub := ws.NewHub(presence)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	movieRepo := repository.NewMovieRepository(db)
	ledgerRepo := repository.NewGroupMovieRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	watchlistRepo := repository.NewWatchlistRepository(db)
	inviteRepo := repository.NewInviteCodeRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)

	// Services
	activityService := service.NewActivityService(activityRepo, groupRepo, hub)
	if cfg.AMQPURL != "" {
		activityService.AddNotifier(publisher)
	}
	catalogService := service.NewCatalogService(movieRepo, tmdbClient, movieCache)
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg.JWTSecret)
	userService := service.NewUserService(userRepo, ratingRepo, favoriteRepo, catalogService)
	mediaService := service.NewMediaService(userRepo, groupRepo, objects, cfg.PublicAPIBaseURL)
	groupService := service.NewGroupService(groupRepo, ledgerRepo, activityService, remover)
	inviteService := service.NewInviteService(inviteRepo, groupRepo, userRepo, activityService)
	ledgerService := service.NewLedgerService(ledgerRepo, ratingRepo, groupRepo, catalogService, activityService)
	ratingService := service.NewRatingService(ratingRepo, ledgerRepo, groupRepo, activityService)
	watchlistService := service.NewWatchlistService(watchlistRepo, groupRepo, catalogService, ledgerService, activityService)

	registerRoutes(app, cfg, routeHandlers{
		membership: service.NewMembership(groupRepo),
		auth:       handlers.NewAuthHandler(authService, cfg.CookieSecure),
		users:      handlers.NewUserHandler(userService, mediaService),
		media:      handlers.NewMediaHandler(objectReader),
		groups:     handlers.NewGroupHandler(groupService, inviteService, mediaService),
		movies:     handlers.NewMovieHandler(catalogService, ledgerService, ratingService),
		watchlist:  handlers.NewWatchlistHandler(watchlistService),
		activity:   handlers.NewActivityHandler(activityService),
		websocket:  handlers.NewWebSocketHandler(hub),
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("Shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.WithField("port", cfg.Port).Info("Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("Server stopped")
	}

	hub.Close()
	if err := publisher.Close(); err != nil {
		log.WithError(err).Warn("rabbitmq close failed")
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
