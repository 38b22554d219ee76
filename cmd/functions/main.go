package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bandscope-backend/internal/common/config"
	"bandscope-backend/internal/common/logger"
	"bandscope-backend/internal/common/middleware"
	"bandscope-backend/internal/functions"
	"bandscope-backend/internal/platform/authapi"
	"bandscope-backend/internal/platform/resend"
	"bandscope-backend/internal/platform/storage"
)

// The functions service runs separately from the main API because it holds
// the service-role key; nothing here is reachable through the public router.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init("bandscope-functions", cfg.Debug)
	log := logger.With("main")
	log.Info().Bool("debug", cfg.Debug).Msg("starting bandscope functions")

	authClient := authapi.NewClient(cfg.Auth.BaseURL, cfg.Auth.AnonKey, cfg.Auth.ServiceRoleKey)
	storageClient := storage.NewClient(cfg.Storage.BaseURL, cfg.Auth.ServiceRoleKey)
	mailer := resend.NewClient(cfg.Resend.APIKey)
	if !mailer.Configured() {
		log.Warn().Msg("resend api key missing, signup notifications will fail")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := functions.NewHandler(authClient, storageClient, mailer,
		cfg.Storage.AvatarBucket, cfg.Resend.NotifyEmail, cfg.Resend.FromAddress)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Functions.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Functions.Port).Msg("functions server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("functions server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("functions server exited")
}
