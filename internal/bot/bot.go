// Package bot is the Telegram front end: long polling, command routing
// and delivery of fired reminders.
package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"remindbot/internal/ai"
	"remindbot/internal/bot/handlers"
	"remindbot/internal/calendar"
	"remindbot/internal/reminder"
	"remindbot/internal/repository"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	log      zerolog.Logger
	handlers *handlers.Handlers
}

// NewAPI dials Telegram. Separate from New so the API handle can back a
// Notifier before the rest of the bot is wired together.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return api, nil
}

func New(api *tgbotapi.BotAPI, log zerolog.Logger, users *repository.UserRepository,
	manager *reminder.Manager, aiClient *ai.Client, cal *calendar.Service) *Bot {
	return &Bot{
		api:      api,
		log:      log.With().Str("component", "bot").Logger(),
		handlers: handlers.New(api, log, users, manager, aiClient, cal),
	}
}

func (b *Bot) Start(ctx context.Context) error {
	b.log.Info().Str("account", b.api.Self.UserName).Msg("authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handlers.HandleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message == nil:
		return
	case update.Message.Contact != nil:
		b.handlers.HandleContact(ctx, update.Message)
	case update.Message.IsCommand():
		b.handlers.HandleCommand(ctx, update.Message)
	default:
		b.handlers.HandleMessage(ctx, update.Message)
	}
}
