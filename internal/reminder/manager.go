// Package reminder orchestrates the reminder lifecycle: a scheduling
// intent comes in, gets normalized and planned, becomes an engine job and
// a persisted Event/Schedule pair, and on every firing is either re-armed
// or finalized.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"remindbot/internal/models"
	"remindbot/internal/recurrence"
	"remindbot/internal/repository"
	"remindbot/internal/scheduler"
	"remindbot/internal/tz"
)

var (
	// ErrPastTime rejects a request whose target instant is not in the
	// future even after the normalizer's corrections.
	ErrPastTime = errors.New("time already in the past")
	// ErrInvalidPayload rejects a request missing or mangling date/time.
	ErrInvalidPayload = errors.New("invalid scheduling payload")
)

// Intent is the structured scheduling request the interpreter produces.
// Date/Time are naive wall-clock strings in the user's zone; the target
// instant is final; "N minutes before X" arithmetic happens upstream.
type Intent struct {
	EventName        string   `json:"event_name"`
	EventDescription string   `json:"event_description"`
	Date             string   `json:"date"` // YYYY-MM-DD
	Time             string   `json:"time"` // HH:MM:SS
	Type             string   `json:"type"` // one_time | recurring
	RRule            string   `json:"rrule"`
	Tags             []string `json:"tags"`
	Status           string   `json:"status"` // success | clarification_needed
}

// Dispatcher delivers the reminder notification to the user. Delivery is
// best-effort: an error is logged and the schedule still advances.
type Dispatcher interface {
	Deliver(ctx context.Context, chatID int64, eventName, eventDescription string) error
}

// Mirror replicates reminders into an external calendar. Optional; a nil
// mirror or a mirror failure never affects the core scheduling flow.
type Mirror interface {
	UpsertEvent(ctx context.Context, chatID int64, name, description string, start time.Time, timezone, rrule string) (string, error)
	DeleteEvent(ctx context.Context, chatID int64, calendarEventID string) error
}

// EventStore is the persistence surface the manager drives. Satisfied by
// repository.EventRepository.
type EventStore interface {
	Create(ctx context.Context, event *models.Event, schedule *models.Schedule, tags []*models.Tag) error
	GetByJobID(ctx context.Context, jobID string) (*models.Event, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.Event, error)
	GetRestorable(ctx context.Context) ([]*models.Event, []*models.User, error)
	Advance(ctx context.Context, jobID string, next time.Time) error
	Finalize(ctx context.Context, jobID string) error
	Cancel(ctx context.Context, jobID string) error
	SetCalendarEventID(ctx context.Context, eventID uuid.UUID, calendarEventID string) error
}

// TagStore resolves and loads tags. Satisfied by repository.TagRepository.
type TagStore interface {
	GetOrCreate(ctx context.Context, names []string) ([]*models.Tag, error)
	GetByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Tag, error)
}

// UserStore loads reminder owners. Satisfied by repository.UserRepository.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Manager struct {
	log    zerolog.Logger
	engine *scheduler.Engine
	events EventStore
	tags   TagStore
	users  UserStore

	dispatcher Dispatcher
	mirror     Mirror

	now func() time.Time
}

func NewManager(log zerolog.Logger, engine *scheduler.Engine, events EventStore,
	tags TagStore, users UserStore, dispatcher Dispatcher, mirror Mirror) *Manager {
	m := &Manager{
		log:        log.With().Str("component", "reminder").Logger(),
		engine:     engine,
		events:     events,
		tags:       tags,
		users:      users,
		dispatcher: dispatcher,
		mirror:     mirror,
		now:        time.Now,
	}
	engine.SetHandler(m.HandleFire)
	return m
}

// Schedule turns an intent into a registered job and a persisted
// Event/Schedule pair. The engine registration happens first; if the
// persist then fails the job is unregistered so no orphaned timer
// remains.
func (m *Manager) Schedule(ctx context.Context, user *models.User, intent Intent) (*models.Event, error) {
	if intent.EventName == "" || intent.Date == "" || intent.Time == "" {
		return nil, ErrInvalidPayload
	}

	naive, err := tz.ParseNaive(intent.Date, intent.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	loc := user.Location()
	nowUTC := m.now().UTC()
	when := tz.Normalize(naive, loc, nowUTC)

	// The normalizer's corrections are best-effort; this guard is the
	// contract.
	if !when.After(nowUTC) {
		return nil, ErrPastTime
	}

	schedType := models.ScheduleOneTime
	var pattern *recurrence.Pattern
	if intent.Type == string(models.ScheduleRecurring) && recurrence.IsRecurring(intent.RRule) {
		pattern, err = recurrence.Parse(intent.RRule, when.In(loc))
		if err != nil {
			return nil, err
		}
		schedType = models.ScheduleRecurring
	} else {
		intent.RRule = ""
	}

	trigger, err := scheduler.Plan(pattern, when, loc)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	job := scheduler.Job{
		ID:      jobID,
		Trigger: trigger,
		Payload: scheduler.Payload{
			ChatID:           user.ChatID,
			EventName:        intent.EventName,
			EventDescription: intent.EventDescription,
		},
	}
	if err := m.engine.Add(job); err != nil {
		return nil, fmt.Errorf("failed to register job: %w", err)
	}

	tags, err := m.tags.GetOrCreate(ctx, intent.Tags)
	if err != nil {
		m.log.Warn().Err(err).Msg("tag resolution failed; scheduling without tags")
		tags = nil
	}

	schedule := &models.Schedule{
		JobID:         jobID,
		Type:          schedType,
		ScheduledTime: when,
		RRule:         intent.RRule,
		Status:        models.SchedulePending,
	}
	event := &models.Event{
		UserID:      user.ID,
		Name:        intent.EventName,
		Description: intent.EventDescription,
		Status:      models.EventActive,
	}
	if err := m.events.Create(ctx, event, schedule, tags); err != nil {
		// Best-effort unregister so the timer does not outlive its data.
		m.engine.Remove(jobID)
		return nil, fmt.Errorf("failed to persist event: %w", err)
	}

	m.mirrorEvent(ctx, user, event, when)

	m.log.Info().Str("job_id", jobID).Str("event", event.Name).
		Time("scheduled_time", when).Str("type", string(schedType)).
		Msg("reminder scheduled")
	return event, nil
}

// HandleFire is the engine's fire handler. It loads the aggregate by job
// id, delivers the notification, and decides between re-arm and finalize.
// The returned instant, when non-nil, is where the engine re-arms the job.
func (m *Manager) HandleFire(ctx context.Context, job scheduler.Job) *time.Time {
	event, err := m.events.GetByJobID(ctx, job.ID)
	if errors.Is(err, repository.ErrNotFound) {
		// Job outlived its rows; data-integrity warning, not fatal.
		m.log.Warn().Str("job_id", job.ID).Msg("fired job has no event row; abandoning")
		return nil
	}
	if err != nil {
		m.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to load event for fired job")
		return nil
	}
	// Deliver before looking at the row's status: a cancellation that
	// commits while this firing is already in flight still gets its last
	// notification attempt, and the job does not re-arm either way.
	if err := m.dispatcher.Deliver(ctx, job.Payload.ChatID, job.Payload.EventName, job.Payload.EventDescription); err != nil {
		m.log.Error().Err(err).Str("job_id", job.ID).Msg("notification delivery failed")
	}

	if event.Schedule.Terminal() {
		return nil
	}

	if !event.Schedule.IsRecurring() {
		if err := m.events.Finalize(ctx, job.ID); err != nil {
			m.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to finalize one-time schedule")
		}
		return nil
	}

	return m.rearm(ctx, event, job.ID)
}

// rearm computes the next occurrence in the user's zone and persists it,
// or finalizes the schedule when the rule is exhausted.
func (m *Manager) rearm(ctx context.Context, event *models.Event, jobID string) *time.Time {
	loc := m.locationFor(ctx, event)

	pattern, err := recurrence.Parse(event.Schedule.RRule, event.Schedule.ScheduledTime.In(loc))
	if err != nil {
		m.log.Error().Err(err).Str("job_id", jobID).Msg("stored rrule no longer parses; finalizing")
		if err := m.events.Finalize(ctx, jobID); err != nil {
			m.log.Error().Err(err).Str("job_id", jobID).Msg("failed to finalize schedule")
		}
		return nil
	}

	next, ok := pattern.NextAfter(m.now().UTC())
	if !ok {
		if err := m.events.Finalize(ctx, jobID); err != nil {
			m.log.Error().Err(err).Str("job_id", jobID).Msg("failed to finalize exhausted schedule")
		}
		m.log.Info().Str("job_id", jobID).Msg("recurrence exhausted; schedule complete")
		return nil
	}

	if err := m.events.Advance(ctx, jobID, next); err != nil {
		// Do not re-arm on a failed commit: firing again without the
		// advanced row risks divergent next-occurrence values.
		m.log.Error().Err(err).Str("job_id", jobID).Msg("failed to persist next occurrence")
		return nil
	}

	m.log.Info().Str("job_id", jobID).Time("next", next).Msg("schedule re-armed")
	return &next
}

// Cancel removes the job (best-effort) and marks the pair cancelled.
// Cancelling something already fired or already cancelled reports
// success: "nothing to cancel" is not an error the user can act on. A
// mirrored calendar event is removed too, so the calendar stops showing
// a reminder that will never fire.
func (m *Manager) Cancel(ctx context.Context, jobID string) error {
	event, err := m.events.GetByJobID(ctx, jobID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		m.log.Warn().Err(err).Str("job_id", jobID).Msg("failed to load event before cancel")
		event = nil
	}

	m.engine.Remove(jobID)
	if err := m.events.Cancel(ctx, jobID); err != nil {
		return fmt.Errorf("failed to mark schedule cancelled: %w", err)
	}

	if m.mirror != nil && event != nil && event.CalendarID != "" {
		if user, uerr := m.users.GetByID(ctx, event.UserID); uerr == nil {
			if derr := m.mirror.DeleteEvent(ctx, user.ChatID, event.CalendarID); derr != nil {
				m.log.Warn().Err(derr).Str("job_id", jobID).Msg("calendar mirror cleanup failed")
			}
		}
	}

	m.log.Info().Str("job_id", jobID).Msg("reminder cancelled")
	return nil
}

// ListActive returns the user's active reminders ordered by next firing,
// with their tags loaded.
func (m *Manager) ListActive(ctx context.Context, user *models.User) ([]*models.Event, error) {
	events, err := m.events.GetActiveByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		tags, err := m.tags.GetByEvent(ctx, event.EventID)
		if err != nil {
			m.log.Warn().Err(err).Str("event_id", event.EventID.String()).Msg("failed to load tags")
			continue
		}
		event.Tags = tags
	}
	return events, nil
}

// Restore rebuilds the engine's job table from the store after a restart.
// The schedule rows are authoritative. A recurring row whose time passed
// during downtime is moved to its next future occurrence (or finalized on
// exhaustion) before registration, so listings never show a stale past
// time; an overdue one-shot fires immediately through the normal path.
func (m *Manager) Restore(ctx context.Context) error {
	events, users, err := m.events.GetRestorable(ctx)
	if err != nil {
		return fmt.Errorf("failed to load restorable schedules: %w", err)
	}

	nowUTC := m.now().UTC()
	restored := 0
	for i, event := range events {
		user := users[i]
		loc := user.Location()
		jobID := event.Schedule.JobID

		var pattern *recurrence.Pattern
		if event.Schedule.IsRecurring() {
			pattern, err = recurrence.Parse(event.Schedule.RRule, event.Schedule.ScheduledTime.In(loc))
			if err != nil {
				m.log.Warn().Err(err).Str("job_id", jobID).Msg("skipping restore of unparseable rrule")
				continue
			}

			if !event.Schedule.ScheduledTime.After(nowUTC) {
				next, ok := pattern.NextAfter(nowUTC)
				if !ok {
					if err := m.events.Finalize(ctx, jobID); err != nil {
						m.log.Error().Err(err).Str("job_id", jobID).Msg("failed to finalize exhausted schedule")
					}
					continue
				}
				if err := m.events.Advance(ctx, jobID, next); err != nil {
					m.log.Error().Err(err).Str("job_id", jobID).Msg("failed to advance stale schedule")
					continue
				}
				event.Schedule.ScheduledTime = next
			}
		}

		trigger, err := scheduler.Plan(pattern, event.Schedule.ScheduledTime, loc)
		if err != nil {
			m.log.Warn().Err(err).Str("job_id", event.Schedule.JobID).Msg("skipping restore of unplannable schedule")
			continue
		}

		job := scheduler.Job{
			ID:      event.Schedule.JobID,
			Trigger: trigger,
			Payload: scheduler.Payload{
				ChatID:           user.ChatID,
				EventName:        event.Name,
				EventDescription: event.Description,
			},
		}
		if err := m.engine.Add(job); err != nil {
			if !errors.Is(err, scheduler.ErrDuplicateJob) {
				m.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to restore job")
			}
			continue
		}
		restored++
	}

	m.log.Info().Int("restored", restored).Int("candidates", len(events)).Msg("job table rebuilt from store")
	return nil
}

func (m *Manager) mirrorEvent(ctx context.Context, user *models.User, event *models.Event, start time.Time) {
	if m.mirror == nil {
		return
	}
	calID, err := m.mirror.UpsertEvent(ctx, user.ChatID, event.Name, event.Description, start,
		user.Timezone, event.Schedule.RRule)
	if err != nil {
		// Secondary mirror, never a dependency.
		m.log.Warn().Err(err).Str("event", event.Name).Msg("calendar mirror failed")
		return
	}
	if calID == "" {
		return
	}
	if err := m.events.SetCalendarEventID(ctx, event.EventID, calID); err != nil {
		m.log.Warn().Err(err).Msg("failed to store calendar event id")
	}
}

// locationFor resolves the event owner's zone for rule arithmetic. A
// lookup failure degrades to UTC rather than failing the firing.
func (m *Manager) locationFor(ctx context.Context, event *models.Event) *time.Location {
	user, err := m.users.GetByID(ctx, event.UserID)
	if err != nil {
		m.log.Warn().Err(err).Str("user_id", event.UserID.String()).Msg("failed to load user; using UTC")
		return time.UTC
	}
	return user.Location()
}
