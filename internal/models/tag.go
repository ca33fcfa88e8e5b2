package models

import "github.com/google/uuid"

// Tag is a normalized label shared across events. Names are trimmed and
// lower-cased before they reach the store, so equality is plain string
// equality.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
