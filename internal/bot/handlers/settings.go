package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/models"
)

// commonTimezones backs the onboarding picker. Anything else goes
// through `/timezone Area/City`.
var commonTimezones = [][]string{
	{"UTC", "Europe/London", "Europe/Berlin"},
	{"Europe/Kyiv", "Europe/Madrid", "Europe/Paris"},
	{"America/New_York", "America/Chicago", "America/Los_Angeles"},
	{"America/Sao_Paulo", "Asia/Dubai", "Asia/Kolkata"},
	{"Asia/Singapore", "Asia/Tokyo", "Australia/Sydney"},
}

var languages = []struct {
	Code  string
	Label string
}{
	{"en", "English"},
	{"es", "Español"},
	{"de", "Deutsch"},
	{"fr", "Français"},
}

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	text := fmt.Sprintf(`👋 Hi %s!

I'm a reminder bot. Tell me what to remind you about in plain language, for example:
• "remind me to call mom tomorrow at 6pm"
• "water the plants every Monday and Thursday at 9am"
• "take medication daily at 08:00"

Commands: /list, /cancel, /timezone, /help`, html.EscapeString(msg.From.FirstName))
	h.sendMessage(msg.Chat.ID, text)

	if user.NeedsTimezone() {
		h.sendTimezoneKeyboard(msg.Chat.ID)
	}
}

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	text := `📖 <b>Commands</b>

/list - show your active reminders
/cancel - cancel a reminder
/timezone - set your timezone (e.g. /timezone Europe/Berlin)
/language - change language
/connect_calendar - mirror reminders into Google Calendar

Or just write what you want to be reminded about. I understand one-off times ("tomorrow at 3pm") and repetition ("every weekday at 9").`
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleTimezone(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		h.sendTimezoneKeyboard(msg.Chat.ID)
		return
	}

	if _, err := time.LoadLocation(arg); err != nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("I don't know the timezone <b>%s</b>. Use an IANA name like <b>Europe/Berlin</b> or pick one below.", html.EscapeString(arg)))
		h.sendTimezoneKeyboard(msg.Chat.ID)
		return
	}

	if err := h.users.SetTimezone(ctx, msg.Chat.ID, arg); err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to set timezone")
		h.sendMessage(msg.Chat.ID, "Something went wrong saving your timezone, please try again.")
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("Timezone set to <b>%s</b>. Current local time: %s",
		arg, localNow(arg).Format("15:04")))
}

func (h *Handlers) sendTimezoneKeyboard(chatID int64) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(commonTimezones))
	for _, row := range commonTimezones {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, zone := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(zone, "tz:"+zone))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	h.sendWithKeyboard(chatID, "🌍 Pick your timezone, or send <b>/timezone Area/City</b> for any other:",
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handlers) callbackSetTimezone(ctx context.Context, callback *tgbotapi.CallbackQuery, zone string) {
	if _, err := time.LoadLocation(zone); err != nil {
		return
	}
	chatID := callback.Message.Chat.ID
	if err := h.users.SetTimezone(ctx, chatID, zone); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to set timezone")
		return
	}
	h.editMessageText(chatID, callback.Message.MessageID,
		fmt.Sprintf("✅ Timezone set to <b>%s</b>. Current local time: %s", zone, localNow(zone).Format("15:04")))
}

func (h *Handlers) sendLanguageKeyboard(chatID int64) {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(languages))
	for _, lang := range languages {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(lang.Label, "lang:"+lang.Code))
	}
	h.sendWithKeyboard(chatID, "Pick a language:", tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(buttons...),
	))
}

func (h *Handlers) callbackSetLanguage(ctx context.Context, callback *tgbotapi.CallbackQuery, code string) {
	chatID := callback.Message.Chat.ID
	if err := h.users.SetLanguage(ctx, chatID, code); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to set language")
		return
	}
	h.editMessageText(chatID, callback.Message.MessageID, "✅ Language updated.")
}

func (h *Handlers) handleConnectCalendar(ctx context.Context, msg *tgbotapi.Message) {
	if h.calendar == nil {
		h.sendMessage(msg.Chat.ID, "Calendar sync is not configured on this bot.")
		return
	}
	if h.calendar.Linked(ctx, msg.Chat.ID) {
		h.sendMessage(msg.Chat.ID, "✅ Your Google Calendar is already linked. New reminders will show up there.")
		return
	}

	url := h.calendar.AuthURL(msg.Chat.ID)
	h.sendWithKeyboard(msg.Chat.ID, "Link your Google Calendar so reminders appear there too:",
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("🔗 Connect Google Calendar", url),
			),
		))
}

func localNow(zone string) time.Time {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Now().In(loc)
}
