package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/models"
	"remindbot/internal/recurrence"
	"remindbot/internal/reminder"
)

// handleReminderRequest runs the natural-language scheduling flow: the
// AI resolves the message into an intent, the manager turns the intent
// into a live reminder.
func (h *Handlers) handleReminderRequest(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	if user.NeedsTimezone() {
		h.sendMessage(msg.Chat.ID, "First tell me your timezone so I get the times right.")
		h.sendTimezoneKeyboard(msg.Chat.ID)
		return
	}

	typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
	if _, err := h.api.Request(typing); err != nil {
		h.log.Debug().Err(err).Msg("failed to send chat action")
	}

	loc := user.Location()
	intent, err := h.ai.ParseReminder(ctx, msg.Text, time.Now().In(loc), user.Timezone, user.Language)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("AI parse failed")
		h.sendMessage(msg.Chat.ID, "I couldn't process that right now, please try again in a moment.")
		return
	}

	if intent.NeedsClarification() {
		question := intent.Clarification
		if question == "" {
			question = "I didn't catch when to remind you. Can you give me a date and time?"
		}
		h.sendMessage(msg.Chat.ID, html.EscapeString(question))
		return
	}

	event, err := h.manager.Schedule(ctx, user, reminder.Intent{
		EventName:        intent.EventName,
		EventDescription: intent.EventDescription,
		Date:             intent.Date,
		Time:             intent.Time,
		Type:             intent.Type,
		RRule:            intent.RRule,
		Tags:             intent.Tags,
		Status:           intent.Status,
	})
	if err != nil {
		h.sendMessage(msg.Chat.ID, scheduleErrorText(err))
		return
	}

	h.sendMessage(msg.Chat.ID, confirmationText(event, loc))
}

func scheduleErrorText(err error) string {
	switch {
	case errors.Is(err, reminder.ErrPastTime):
		return "That time has already passed. Give me a time in the future."
	case errors.Is(err, reminder.ErrInvalidPayload):
		return "I couldn't work out the date and time. Try something like \"tomorrow at 3pm\"."
	case errors.Is(err, recurrence.ErrUnsupportedPattern):
		return "I can't schedule that repetition pattern. Try a simpler one, like \"every Monday\" or \"every 2 days\"."
	default:
		return "Something went wrong setting that up, please try again."
	}
}

func confirmationText(event *models.Event, loc *time.Location) string {
	local := event.Schedule.ScheduledTime.In(loc)
	text := fmt.Sprintf("✅ <b>%s</b>\n🗓 %s", html.EscapeString(event.Name),
		local.Format("Mon, 2 Jan 2006 at 15:04"))

	if event.Schedule.IsRecurring() {
		text += "\n🔁 " + html.EscapeString(recurrence.Describe(event.Schedule.RRule))
	}
	if len(event.Tags) > 0 {
		names := make([]string, 0, len(event.Tags))
		for _, tag := range event.Tags {
			names = append(names, "#"+tag.Name)
		}
		text += "\n🏷 " + html.EscapeString(strings.Join(names, " "))
	}
	return text
}
