package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	ChatID      int64     `json:"chat_id"`
	UserName    string    `json:"user_name"`
	Timezone    string    `json:"timezone"` // IANA zone, "UTC" until the user picks one
	Language    string    `json:"language"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Location resolves the user's IANA timezone, falling back to UTC if the
// stored value does not resolve.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NeedsTimezone reports whether the user still has the initial default zone.
func (u *User) NeedsTimezone() bool {
	return u.Timezone == "" || u.Timezone == "UTC"
}
