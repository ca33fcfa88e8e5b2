package models

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleType string

const (
	ScheduleOneTime   ScheduleType = "one_time"
	ScheduleRecurring ScheduleType = "recurring"
)

type ScheduleStatus string

const (
	SchedulePending   ScheduleStatus = "pending"
	ScheduleOngoing   ScheduleStatus = "ongoing"
	ScheduleComplete  ScheduleStatus = "complete"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// Schedule is one physical timer. JobID is the join key to the engine job
// and stays stable for the row's whole lifetime, across every recurrence.
// ScheduledTime always holds the next pending firing in UTC; it is advanced
// in place after each recurring firing, never historized.
type Schedule struct {
	ID            uuid.UUID      `json:"id"`
	JobID         string         `json:"job_id"`
	Type          ScheduleType   `json:"type"`
	ScheduledTime time.Time      `json:"scheduled_time"`
	RRule         string         `json:"rrule"` // RFC 5545 RRULE, empty for one_time
	Status        ScheduleStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// IsRecurring returns true if this schedule has a recurrence rule
func (s *Schedule) IsRecurring() bool {
	return s.Type == ScheduleRecurring && s.RRule != ""
}

// Terminal reports whether the schedule can never fire again.
func (s *Schedule) Terminal() bool {
	return s.Status == ScheduleComplete || s.Status == ScheduleCancelled
}
