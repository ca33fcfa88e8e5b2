// Package handlers routes Telegram commands, callbacks and free-form
// messages to the reminder lifecycle.
package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"remindbot/internal/ai"
	"remindbot/internal/calendar"
	"remindbot/internal/reminder"
	"remindbot/internal/repository"
)

type Handlers struct {
	api      *tgbotapi.BotAPI
	log      zerolog.Logger
	users    *repository.UserRepository
	manager  *reminder.Manager
	ai       *ai.Client
	calendar *calendar.Service
}

// New wires the handler set. calendar may be nil when the mirror is not
// configured; the /connect_calendar command then explains that.
func New(api *tgbotapi.BotAPI, log zerolog.Logger, users *repository.UserRepository,
	manager *reminder.Manager, aiClient *ai.Client, cal *calendar.Service) *Handlers {
	return &Handlers{
		api:      api,
		log:      log.With().Str("component", "handlers").Logger(),
		users:    users,
		manager:  manager,
		ai:       aiClient,
		calendar: cal,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	user, err := h.users.GetOrCreate(ctx, msg.Chat.ID, msg.From.UserName)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to get/create user")
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg, user)
	case "help":
		h.handleHelp(msg)
	case "list":
		h.handleList(ctx, msg, user)
	case "cancel":
		h.handleCancelMenu(ctx, msg, user, 0)
	case "timezone":
		h.handleTimezone(ctx, msg, user)
	case "language":
		h.sendLanguageKeyboard(msg.Chat.ID)
	case "connect_calendar":
		h.handleConnectCalendar(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := h.users.GetOrCreate(ctx, msg.Chat.ID, msg.From.UserName)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to get/create user")
		return
	}

	h.handleReminderRequest(ctx, msg, user)
}

// HandleContact stores the shared phone number during onboarding.
func (h *Handlers) HandleContact(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Contact.UserID != msg.From.ID {
		h.sendMessage(msg.Chat.ID, "Please share your own contact.")
		return
	}
	if err := h.users.SetPhoneNumber(ctx, msg.Chat.ID, msg.Contact.PhoneNumber); err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to store phone number")
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Thanks! Now pick your timezone so reminders fire at your local time.")
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := h.api.Send(reply); err != nil {
		h.log.Error().Err(err).Msg("failed to send message")
	}
	h.sendTimezoneKeyboard(msg.Chat.ID)
}

func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	answer := tgbotapi.NewCallback(callback.ID, "")
	if _, err := h.api.Request(answer); err != nil {
		h.log.Debug().Err(err).Msg("failed to answer callback")
	}

	parts := strings.SplitN(callback.Data, ":", 2)
	if len(parts) != 2 {
		return
	}
	action, arg := parts[0], parts[1]

	switch action {
	case "tz":
		h.callbackSetTimezone(ctx, callback, arg)
	case "lang":
		h.callbackSetLanguage(ctx, callback, arg)
	case "cancel":
		h.callbackCancelReminder(ctx, callback, arg)
	case "cancelpage":
		h.callbackCancelPage(ctx, callback, arg)
	}
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (h *Handlers) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (h *Handlers) editMessageText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := h.api.Send(edit); err != nil {
		h.log.Debug().Err(err).Msg("failed to edit message")
	}
}
