package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"remindbot/internal/ai"
	"remindbot/internal/bot"
	"remindbot/internal/calendar"
	"remindbot/internal/config"
	"remindbot/internal/database"
	"remindbot/internal/logging"
	"remindbot/internal/reminder"
	"remindbot/internal/repository"
	"remindbot/internal/scheduler"
	"remindbot/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info", false)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to database")

	if err := db.Migrate(ctx, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	tagRepo := repository.NewTagRepository(db)
	credsRepo := repository.NewCredentialsRepository(db)

	aiClient := ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
	log.Info().Str("model", cfg.AIModel).Msg("AI client initialized")

	api, err := bot.NewAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram client")
	}

	var cal *calendar.Service
	if cfg.CalendarEnabled() {
		cal = calendar.New(log, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL(), credsRepo)
		log.Info().Msg("google calendar mirror enabled")
	} else {
		log.Info().Msg("google calendar mirror not configured")
	}

	engine := scheduler.New(log)
	notifier := bot.NewNotifier(api, log)

	var mirror reminder.Mirror
	if cal != nil {
		mirror = cal
	}
	manager := reminder.NewManager(log, engine, eventRepo, tagRepo, userRepo, notifier, mirror)

	if err := manager.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to restore scheduled jobs")
	}

	go engine.Start(ctx)

	if cal != nil {
		srv := web.New(log, cfg.WebServerAddr, cal)
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.Error().Err(err).Msg("oauth callback server stopped")
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
	}()

	b := bot.New(api, log, userRepo, manager, aiClient, cal)
	log.Info().Msg("starting bot")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}
