package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"bandscope-backend/internal/common/config"
	"bandscope-backend/internal/common/logger"
	"bandscope-backend/internal/common/middleware"
	discoveryHTTP "bandscope-backend/internal/features/discovery/delivery/http"
	discoveryService "bandscope-backend/internal/features/discovery/service"
	eventHTTP "bandscope-backend/internal/features/event/delivery/http"
	eventRepo "bandscope-backend/internal/features/event/repository/postgres"
	eventService "bandscope-backend/internal/features/event/service"
	followHTTP "bandscope-backend/internal/features/follow/delivery/http"
	followRepo "bandscope-backend/internal/features/follow/repository/postgres"
	followService "bandscope-backend/internal/features/follow/service"
	profileHTTP "bandscope-backend/internal/features/profile/delivery/http"
	profileRepo "bandscope-backend/internal/features/profile/repository/postgres"
	profileCache "bandscope-backend/internal/features/profile/repository/redis"
	profileService "bandscope-backend/internal/features/profile/service"
	"bandscope-backend/internal/platform/authapi"
	"bandscope-backend/internal/platform/functions"
	"bandscope-backend/internal/platform/geocoding"
	"bandscope-backend/internal/platform/postgres"
	"bandscope-backend/internal/platform/redis"
	"bandscope-backend/internal/platform/storage"
)

// @title           BandScope API
// @version         1.0
// @description     Backend for the BandScope musician network: profiles, discovery, events and follows.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token issued by the auth service, sent as "Bearer <token>"

// @tag.name profiles
// @tag.description Profile management and avatars

// @tag.name discovery
// @tag.description Feed search with text and radius filters

// @tag.name events
// @tag.description Event listings

// @tag.name follows
// @tag.description Follow edges between profiles

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init("bandscope-api", cfg.Debug)
	log := logger.With("main")
	log.Info().Bool("debug", cfg.Debug).Msg("starting bandscope api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()
	log.Info().Msg("postgres connection established")

	redisClient, err := redis.Open(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connection established")

	// External service clients.
	authClient := authapi.NewClient(cfg.Auth.BaseURL, cfg.Auth.AnonKey, cfg.Auth.ServiceRoleKey)
	geocoder := geocoding.NewClient(cfg.Geocoding.BaseURL, cfg.Geocoding.APIKey)
	storageClient := storage.NewClient(cfg.Storage.BaseURL, cfg.Auth.ServiceRoleKey)
	functionsClient := functions.NewClient(cfg.Functions.BaseURL)

	// Repositories.
	profiles := profileRepo.NewPostgresRepository(db)
	events := eventRepo.NewPostgresRepository(db)
	follows := followRepo.NewPostgresRepository(db)
	feedCache := profileCache.NewFeedCache(redisClient)

	// Services.
	profileSvc := profileService.NewProfileService(
		profiles, feedCache, geocoder, storageClient, functionsClient,
		cfg.Storage.AvatarBucket,
		profileService.RetryConfig{
			Attempts: cfg.Session.ProfileRetryAttempts,
			Delay:    cfg.Session.ProfileRetryDelay,
		},
	)
	eventSvc := eventService.NewEventService(events, geocoder)
	followSvc := followService.NewFollowService(follows)
	discoverySvc := discoveryService.NewDiscoveryService(profileSvc, geocoder, cfg.Discovery.RadiusOptionsMiles)

	log.Info().Msg("services initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	auth := middleware.Authenticate(authClient)
	v1 := router.Group("/api/v1")
	profileHTTP.NewProfileHandler(profileSvc).RegisterRoutes(v1, auth)
	discoveryHTTP.NewDiscoveryHandler(discoverySvc).RegisterRoutes(v1, auth)
	eventHTTP.NewEventHandler(eventSvc, profileSvc).RegisterRoutes(v1, auth)
	followHTTP.NewFollowHandler(followSvc, profileSvc).RegisterRoutes(v1, auth)

	log.Info().Msg("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server exited")
}
