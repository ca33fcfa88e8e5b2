package models

import "time"

// GoogleCredentials holds the OAuth tokens for a user's calendar mirror.
type GoogleCredentials struct {
	ChatID       int64      `json:"chat_id"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CalendarID   string     `json:"calendar_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Expired reports whether the access token needs a refresh before use.
func (c *GoogleCredentials) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
