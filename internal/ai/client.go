// Package ai turns free-form reminder requests into structured
// scheduling intents through an OpenAI-compatible chat API.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Intent is the model's structured reading of a reminder request. Date
// and Time are naive wall-clock values in the user's own timezone; any
// lead-time arithmetic ("10 minutes before the meeting") is already
// applied, so they name the instant the reminder should fire.
type Intent struct {
	EventName        string   `json:"event_name"`
	EventDescription string   `json:"event_description"`
	Date             string   `json:"date"` // YYYY-MM-DD
	Time             string   `json:"time"` // HH:MM:SS
	Type             string   `json:"type"` // one_time | recurring
	RRule            string   `json:"rrule"`
	Tags             []string `json:"tags"`
	Status           string   `json:"status"` // success | clarification_needed
	Clarification    string   `json:"clarification"`
	RawResponse      string   `json:"-"`
}

func (i *Intent) NeedsClarification() bool {
	return i.Status != "success"
}

const systemPromptTemplate = `You are the scheduling brain of a reminder bot. Parse the user's message into a structured reminder.

Current date and time in the user's timezone: %s
User's timezone: %s
User's language: %s

Rules:
1. Resolve relative dates ("tomorrow", "next Monday", "in 3 hours") against the current time above and output concrete values: date as YYYY-MM-DD, time as HH:MM:SS.
2. If the user gives a date but no time, default the time to 08:00:00.
3. If the reminder is relative to another moment ("10 minutes before my 3pm meeting"), output the instant the reminder should actually fire.
4. type is "recurring" only when the user asks for repetition ("every day", "weekly", "each Monday and Thursday"); otherwise "one_time".
5. For recurring reminders, produce an RFC 5545 RRULE (e.g. "FREQ=WEEKLY;BYDAY=MO,TH" or "FREQ=DAILY;INTERVAL=2"). Leave rrule empty for one_time.
6. Extract 1-3 short lowercase tags describing the reminder topic (e.g. "health", "work", "birthday").
7. event_name is a short imperative title; event_description carries any extra detail, or repeats the request in one sentence.
8. If the message is not a schedulable reminder, or the date/time cannot be determined, set status to "clarification_needed" and put a short question for the user in clarification, written in the user's language. Otherwise set status to "success".`

func systemPrompt(now time.Time, timezone, language string) string {
	if language == "" {
		language = "en"
	}
	return fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04:05 (Monday)"), timezone, language)
}

var intentSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"event_name": {
			"type": "string",
			"description": "Short title of the reminder"
		},
		"event_description": {
			"type": "string",
			"description": "Extra detail about the reminder"
		},
		"date": {
			"type": "string",
			"description": "Target date in the user's timezone, YYYY-MM-DD"
		},
		"time": {
			"type": "string",
			"description": "Target time in the user's timezone, HH:MM:SS"
		},
		"type": {
			"type": "string",
			"enum": ["one_time", "recurring"],
			"description": "Whether the reminder repeats"
		},
		"rrule": {
			"type": "string",
			"description": "RFC 5545 recurrence rule; empty for one_time"
		},
		"tags": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Short lowercase topic tags"
		},
		"status": {
			"type": "string",
			"enum": ["success", "clarification_needed"],
			"description": "Whether the request could be parsed"
		},
		"clarification": {
			"type": "string",
			"description": "Question to ask the user when status is clarification_needed"
		}
	},
	"required": ["event_name", "date", "time", "type", "status"],
	"additionalProperties": false
}`)

// ParseReminder resolves a natural-language request into an Intent. The
// caller supplies the user's local now and timezone name so relative
// dates resolve in the right zone; language steers clarification replies.
func (c *Client) ParseReminder(ctx context.Context, message string, userNow time.Time, timezone, language string) (*Intent, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(userNow, timezone, language),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: message,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "reminder_intent",
				Schema: intentSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	content := resp.Choices[0].Message.Content
	intent := &Intent{RawResponse: content}

	if err := json.Unmarshal([]byte(stripFence(content)), intent); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return intent, nil
}

// stripFence tolerates models that wrap JSON in a markdown code fence
// despite the structured-output request.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
