package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diagnosis/party-hub/internal/http/handlers"
	"github.com/diagnosis/party-hub/internal/http/middleware"
	"github.com/diagnosis/party-hub/internal/platform/mailer"
	"github.com/diagnosis/party-hub/internal/platform/push"
	"github.com/diagnosis/party-hub/internal/repo/sqlite"
	"github.com/diagnosis/party-hub/internal/service"
	"github.com/diagnosis/party-hub/pkg/config"
	"github.com/diagnosis/party-hub/pkg/database"
	"github.com/diagnosis/party-hub/pkg/events"
	"github.com/diagnosis/party-hub/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Could not read .env", "error", err)
	}
	cfg := config.Load()
	logger.Setup(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Service:    "party-hub",
	})
	if cfg.Auth.Secret == config.DevAuthSecret && !cfg.IsDev() {
		logger.Warn("AUTH_SECRET is not set, sessions are signed with the development key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.Database.Path)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to event bus
	eventBus, err := events.New(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to event bus", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize repositories
	authorRepo := sqlite.NewAuthorRepo(db)
	partyRepo := sqlite.NewPartyRepo(db)
	guestRepo := sqlite.NewGuestRepo(db)
	invitationRepo := sqlite.NewInvitationRepo(db)
	pushRepo := sqlite.NewPushRepo(db)

	// Delivery channels
	mail := mailer.New(cfg.Email)
	var sender push.Sender
	if s, err := push.New(cfg.Push); err != nil {
		logger.Warn("Web push disabled", "error", err)
	} else {
		sender = s
	}

	// Initialize services
	partyService := service.NewPartyService(partyRepo, guestRepo, invitationRepo, eventBus)
	guestService := service.NewGuestService(guestRepo, partyRepo, eventBus)
	invitationService := service.NewInvitationService(invitationRepo, guestRepo, partyRepo, eventBus, cfg)
	notificationService := service.NewNotificationService(guestRepo, pushRepo, sender)

	notifier := service.NewNotifier(invitationRepo, pushRepo, sender, mail, cfg.Web.BaseURL)
	if err := notifier.Start(eventBus); err != nil {
		logger.Error("Failed to start notifier", "error", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(handlers.Deps{
		Config:        cfg,
		DB:            db,
		Authors:       authorRepo,
		Parties:       partyService,
		Guests:        guestService,
		Invitations:   invitationService,
		Notifications: notificationService,
		Limiter:       middleware.NewRateLimiter(ctx, cfg.RateLimit),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down party hub...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Party hub shutdown error", "error", err)
		}
	}()

	logger.Info("Starting party hub", "port", cfg.Server.Port, "mail_mode", mail.Mode(), "push", sender != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Party hub server error", "error", err)
		os.Exit(1)
	}
}
