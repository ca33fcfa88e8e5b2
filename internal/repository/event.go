package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"remindbot/internal/database"
	"remindbot/internal/models"
)

var ErrNotFound = errors.New("not found")

// EventRepository persists the Event/Schedule aggregate. The schedule row
// is authoritative for the engine's job table; event and schedule always
// change together, inside one transaction per operation.
type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts the schedule, the event and the tag links atomically.
// A failure anywhere rolls back everything, so a registered engine job
// can never point at a half-written aggregate.
func (r *EventRepository) Create(ctx context.Context, event *models.Event, schedule *models.Schedule, tags []*models.Tag) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO schedules (job_id, type, scheduled_time, rrule, status)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		 RETURNING id, created_at`,
		schedule.JobID, schedule.Type, schedule.ScheduledTime.UTC(), schedule.RRule, schedule.Status,
	).Scan(&schedule.ID, &schedule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	event.ScheduleID = schedule.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO events (user_id, schedule_id, event_name, description, status, calendar_event_id)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		 RETURNING id, created_at, updated_at`,
		event.UserID, event.ScheduleID, event.Name, event.Description, event.Status, event.CalendarID,
	).Scan(&event.EventID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	for _, tag := range tags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO event_tags (event_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			event.EventID, tag.ID,
		); err != nil {
			return fmt.Errorf("failed to link tag %s: %w", tag.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	event.Schedule = schedule
	event.Tags = tags
	return nil
}

// GetByJobID loads an event with its schedule by the engine job id.
func (r *EventRepository) GetByJobID(ctx context.Context, jobID string) (*models.Event, error) {
	event, schedule := &models.Event{}, &models.Schedule{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT e.id, e.user_id, e.schedule_id, e.event_name, COALESCE(e.description, ''), e.status,
		        COALESCE(e.calendar_event_id, ''), e.created_at, e.updated_at,
		        s.id, s.job_id, s.type, s.scheduled_time, COALESCE(s.rrule, ''), s.status, s.created_at
		 FROM events e JOIN schedules s ON e.schedule_id = s.id
		 WHERE s.job_id = $1`,
		jobID,
	).Scan(&event.EventID, &event.UserID, &event.ScheduleID, &event.Name, &event.Description, &event.Status,
		&event.CalendarID, &event.CreatedAt, &event.UpdatedAt,
		&schedule.ID, &schedule.JobID, &schedule.Type, &schedule.ScheduledTime, &schedule.RRule,
		&schedule.Status, &schedule.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	event.Schedule = schedule
	return event, nil
}

// GetActiveByUser lists a user's active events ordered by next firing.
func (r *EventRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT e.id, e.user_id, e.schedule_id, e.event_name, COALESCE(e.description, ''), e.status,
		        COALESCE(e.calendar_event_id, ''), e.created_at, e.updated_at,
		        s.id, s.job_id, s.type, s.scheduled_time, COALESCE(s.rrule, ''), s.status, s.created_at
		 FROM events e JOIN schedules s ON e.schedule_id = s.id
		 WHERE e.user_id = $1 AND e.status = 'active'
		 ORDER BY s.scheduled_time ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetRestorable returns every event whose schedule is still pending or
// ongoing, joined with the owning user, for rebuilding the engine's job
// table after a restart.
func (r *EventRepository) GetRestorable(ctx context.Context) ([]*models.Event, []*models.User, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT e.id, e.user_id, e.schedule_id, e.event_name, COALESCE(e.description, ''), e.status,
		        COALESCE(e.calendar_event_id, ''), e.created_at, e.updated_at,
		        s.id, s.job_id, s.type, s.scheduled_time, COALESCE(s.rrule, ''), s.status, s.created_at,
		        u.id, u.chat_id, u.user_name, u.timezone, u.language, COALESCE(u.phone_number, ''), u.created_at
		 FROM events e
		 JOIN schedules s ON e.schedule_id = s.id
		 JOIN users u ON e.user_id = u.id
		 WHERE s.status IN ('pending', 'ongoing') AND e.status = 'active'
		 ORDER BY s.scheduled_time ASC`,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var events []*models.Event
	var users []*models.User
	for rows.Next() {
		event, schedule, user := &models.Event{}, &models.Schedule{}, &models.User{}
		if err := rows.Scan(&event.EventID, &event.UserID, &event.ScheduleID, &event.Name, &event.Description,
			&event.Status, &event.CalendarID, &event.CreatedAt, &event.UpdatedAt,
			&schedule.ID, &schedule.JobID, &schedule.Type, &schedule.ScheduledTime, &schedule.RRule,
			&schedule.Status, &schedule.CreatedAt,
			&user.ID, &user.ChatID, &user.UserName, &user.Timezone, &user.Language, &user.PhoneNumber,
			&user.CreatedAt); err != nil {
			return nil, nil, err
		}
		event.Schedule = schedule
		events = append(events, event)
		users = append(users, user)
	}
	return events, users, rows.Err()
}

// Advance moves a recurring schedule to its next occurrence and marks the
// pair ongoing/active, in one transaction so two concurrent re-arms can
// never leave divergent next-occurrence values.
func (r *EventRepository) Advance(ctx context.Context, jobID string, next time.Time) error {
	return r.transition(ctx, jobID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE schedules SET scheduled_time = $1, status = 'ongoing'
			 WHERE job_id = $2 AND status NOT IN ('cancelled', 'complete')`,
			next.UTC(), jobID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx,
			`UPDATE events SET status = 'active', updated_at = now()
			 WHERE schedule_id = (SELECT id FROM schedules WHERE job_id = $1)`,
			jobID,
		)
		return err
	})
}

// Finalize marks a schedule complete and its event completed.
func (r *EventRepository) Finalize(ctx context.Context, jobID string) error {
	return r.setStatus(ctx, jobID, models.ScheduleComplete, models.EventCompleted)
}

// Cancel marks a schedule cancelled and its event cancelled. Cancelling
// an already-terminal schedule is a no-op so repeated cancels converge on
// the same end state.
func (r *EventRepository) Cancel(ctx context.Context, jobID string) error {
	return r.setStatus(ctx, jobID, models.ScheduleCancelled, models.EventCancelled)
}

func (r *EventRepository) setStatus(ctx context.Context, jobID string, ss models.ScheduleStatus, es models.EventStatus) error {
	return r.transition(ctx, jobID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE schedules SET status = $1
			 WHERE job_id = $2 AND status NOT IN ('cancelled', 'complete')`,
			ss, jobID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// Already terminal or unknown; leave it as it is.
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE events SET status = $1, updated_at = now()
			 WHERE schedule_id = (SELECT id FROM schedules WHERE job_id = $2)`,
			es, jobID,
		)
		return err
	})
}

func (r *EventRepository) transition(ctx context.Context, jobID string, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transition for job %s: %w", jobID, err)
	}
	return nil
}

// SetCalendarEventID records the external calendar linkage after a
// successful mirror.
func (r *EventRepository) SetCalendarEventID(ctx context.Context, eventID uuid.UUID, calendarEventID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE events SET calendar_event_id = $1, updated_at = now() WHERE id = $2`,
		calendarEventID, eventID,
	)
	return err
}

func scanEvents(rows pgx.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		event, schedule := &models.Event{}, &models.Schedule{}
		if err := rows.Scan(&event.EventID, &event.UserID, &event.ScheduleID, &event.Name, &event.Description,
			&event.Status, &event.CalendarID, &event.CreatedAt, &event.UpdatedAt,
			&schedule.ID, &schedule.JobID, &schedule.Type, &schedule.ScheduledTime, &schedule.RRule,
			&schedule.Status, &schedule.CreatedAt); err != nil {
			return nil, err
		}
		event.Schedule = schedule
		events = append(events, event)
	}
	return events, rows.Err()
}
