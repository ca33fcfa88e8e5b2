package handlers

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/models"
	"remindbot/internal/recurrence"
)

const cancelPageSize = 5

func (h *Handlers) handleList(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	events, err := h.manager.ListActive(ctx, user)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to list reminders")
		h.sendMessage(msg.Chat.ID, "Couldn't load your reminders, please try again.")
		return
	}
	if len(events) == 0 {
		h.sendMessage(msg.Chat.ID, "You have no active reminders. Just tell me what to remind you about!")
		return
	}

	loc := user.Location()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 <b>Your reminders</b> (%d)\n", len(events)))
	for i, event := range events {
		local := event.Schedule.ScheduledTime.In(loc)
		sb.WriteString(fmt.Sprintf("\n%d. <b>%s</b>\n   🗓 %s", i+1,
			html.EscapeString(event.Name), local.Format("Mon, 2 Jan 15:04")))
		if event.Schedule.IsRecurring() {
			sb.WriteString("\n   🔁 " + html.EscapeString(recurrence.Describe(event.Schedule.RRule)))
		}
		if len(event.Tags) > 0 {
			names := make([]string, 0, len(event.Tags))
			for _, tag := range event.Tags {
				names = append(names, "#"+tag.Name)
			}
			sb.WriteString("\n   🏷 " + html.EscapeString(strings.Join(names, " ")))
		}
	}
	sb.WriteString("\n\nUse /cancel to remove one.")
	h.sendMessage(msg.Chat.ID, sb.String())
}

// handleCancelMenu shows one page of active reminders as cancel buttons.
func (h *Handlers) handleCancelMenu(ctx context.Context, msg *tgbotapi.Message, user *models.User, page int) {
	text, keyboard, err := h.buildCancelPage(ctx, user, page)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to build cancel menu")
		h.sendMessage(msg.Chat.ID, "Couldn't load your reminders, please try again.")
		return
	}
	if keyboard == nil {
		h.sendMessage(msg.Chat.ID, text)
		return
	}
	h.sendWithKeyboard(msg.Chat.ID, text, *keyboard)
}

func (h *Handlers) buildCancelPage(ctx context.Context, user *models.User, page int) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	events, err := h.manager.ListActive(ctx, user)
	if err != nil {
		return "", nil, err
	}
	if len(events) == 0 {
		return "Nothing to cancel, you have no active reminders.", nil, nil
	}

	totalPages := (len(events) + cancelPageSize - 1) / cancelPageSize
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * cancelPageSize
	end := start + cancelPageSize
	if end > len(events) {
		end = len(events)
	}

	loc := user.Location()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, cancelPageSize+1)
	for _, event := range events[start:end] {
		local := event.Schedule.ScheduledTime.In(loc)
		label := fmt.Sprintf("❌ %s (%s)", event.Name, local.Format("2 Jan 15:04"))
		if r := []rune(label); len(r) > 60 {
			label = string(r[:57]) + "..."
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "cancel:"+event.Schedule.JobID),
		))
	}

	if totalPages > 1 {
		nav := make([]tgbotapi.InlineKeyboardButton, 0, 2)
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("cancelpage:%d", page-1)))
		}
		if page < totalPages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("cancelpage:%d", page+1)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(nav...))
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	text := fmt.Sprintf("Which reminder should I cancel? (page %d/%d)", page+1, totalPages)
	return text, &keyboard, nil
}

func (h *Handlers) callbackCancelReminder(ctx context.Context, callback *tgbotapi.CallbackQuery, jobID string) {
	chatID := callback.Message.Chat.ID
	if err := h.manager.Cancel(ctx, jobID); err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("failed to cancel reminder")
		h.editMessageText(chatID, callback.Message.MessageID, "Couldn't cancel that reminder, please try again.")
		return
	}
	h.editMessageText(chatID, callback.Message.MessageID, "✅ Reminder cancelled.")
}

func (h *Handlers) callbackCancelPage(ctx context.Context, callback *tgbotapi.CallbackQuery, arg string) {
	page, err := strconv.Atoi(arg)
	if err != nil {
		return
	}

	chatID := callback.Message.Chat.ID
	user, err := h.users.GetByChatID(ctx, chatID)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to load user")
		return
	}

	text, keyboard, err := h.buildCancelPage(ctx, user, page)
	if err != nil || keyboard == nil {
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID, text, *keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := h.api.Send(edit); err != nil {
		h.log.Debug().Err(err).Msg("failed to edit cancel menu")
	}
}
