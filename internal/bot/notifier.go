package bot

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Notifier delivers fired reminders as Telegram messages.
type Notifier struct {
	api *tgbotapi.BotAPI
	log zerolog.Logger
}

func NewNotifier(api *tgbotapi.BotAPI, log zerolog.Logger) *Notifier {
	return &Notifier{api: api, log: log.With().Str("component", "notifier").Logger()}
}

func (n *Notifier) Deliver(ctx context.Context, chatID int64, eventName, eventDescription string) error {
	text := fmt.Sprintf("⏰ <b>%s</b>", html.EscapeString(eventName))
	if eventDescription != "" {
		text += "\n" + html.EscapeString(eventDescription)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder to chat %d: %w", chatID, err)
	}
	return nil
}
