package models

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Event is the reminder as the user understands it. Every event owns
// exactly one Schedule; deleting the event cascades to the schedule.
type Event struct {
	EventID     uuid.UUID   `json:"event_id"`
	UserID      uuid.UUID   `json:"user_id"`
	ScheduleID  uuid.UUID   `json:"schedule_id"`
	Name        string      `json:"event_name"`
	Description string      `json:"description"`
	Status      EventStatus `json:"status"`
	CalendarID  string      `json:"calendar_event_id"` // external calendar linkage, empty if not mirrored
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Loaded relations, nil/empty unless the query joins them.
	Schedule *Schedule `json:"schedule,omitempty"`
	Tags     []*Tag    `json:"tags,omitempty"`
}
