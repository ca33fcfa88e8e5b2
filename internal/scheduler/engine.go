// Package scheduler fires durable reminder jobs. The engine keeps every
// pending job in memory and drives them from a single timer loop; the
// schedules table remains the source of truth and the in-memory table is
// rebuilt from it after a restart.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrDuplicateJob = errors.New("job id already registered")

// Payload is the typed job payload handed to the fire handler. It covers
// the single job kind this system has: deliver a reminder notification.
type Payload struct {
	ChatID           int64
	EventName        string
	EventDescription string
}

// Job is one registered timer, identified by an opaque id that stays
// stable across every recurrence.
type Job struct {
	ID      string
	Trigger TriggerSpec
	Payload Payload
}

// FireHandler runs when a job becomes due. Returning a non-nil instant
// re-arms the job at that time; nil finishes it. A handler error or panic
// never stops the engine loop.
type FireHandler func(ctx context.Context, job Job) *time.Time

type entry struct {
	job       Job
	due       time.Time
	firing    bool
	cancelled bool
}

type Engine struct {
	log     zerolog.Logger
	handler FireHandler

	mu   sync.Mutex
	jobs map[string]*entry

	wake     chan struct{}
	inFlight sync.WaitGroup
}

func New(log zerolog.Logger) *Engine {
	return &Engine{
		log:  log.With().Str("component", "scheduler").Logger(),
		jobs: make(map[string]*entry),
		wake: make(chan struct{}, 1),
	}
}

// SetHandler registers the fire handler. Must be called before Start.
func (e *Engine) SetHandler(h FireHandler) {
	e.handler = h
}

// Add registers a job. The first due time comes from the trigger; an
// overdue one-shot (typically a job restored after downtime) fires
// immediately. Idempotent on id collision: the existing job is left
// untouched and ErrDuplicateJob is returned.
func (e *Engine) Add(job Job) error {
	now := time.Now().UTC()
	due, ok := job.Trigger.NextAfter(now)
	if !ok {
		due = now
	}

	e.mu.Lock()
	if _, exists := e.jobs[job.ID]; exists {
		e.mu.Unlock()
		return ErrDuplicateJob
	}
	e.jobs[job.ID] = &entry{job: job, due: due}
	e.mu.Unlock()

	e.notify()
	return nil
}

// Remove drops a pending job. Removing a job that already fired or never
// existed is a no-op, not an error: a race between firing and
// cancellation is expected. If the job is mid-fire, it is flagged so it
// cannot re-arm.
func (e *Engine) Remove(jobID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, exists := e.jobs[jobID]
	if !exists {
		return
	}
	if ent.firing {
		ent.cancelled = true
		return
	}
	delete(e.jobs, jobID)
}

// Pending reports whether a job is registered and not mid-cancellation.
func (e *Engine) Pending(jobID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.jobs[jobID]
	return ok && !ent.cancelled
}

// Start runs the timer loop until ctx is cancelled, then waits for
// in-flight firings to settle.
func (e *Engine) Start(ctx context.Context) {
	e.log.Info().Msg("engine started")

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := e.untilNextDue()
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			e.inFlight.Wait()
			e.log.Info().Msg("engine stopped")
			return
		case <-timer.C:
			e.fireDue(ctx)
		case <-e.wake:
			// Job table changed; recompute the wait.
		}
	}
}

// untilNextDue returns how long to park before the earliest pending job.
func (e *Engine) untilNextDue() time.Duration {
	const park = time.Hour

	e.mu.Lock()
	defer e.mu.Unlock()

	var earliest time.Time
	for _, ent := range e.jobs {
		if ent.firing {
			continue
		}
		if earliest.IsZero() || ent.due.Before(earliest) {
			earliest = ent.due
		}
	}
	if earliest.IsZero() {
		return park
	}
	wait := time.Until(earliest)
	if wait < 0 {
		return 0
	}
	if wait > park {
		return park
	}
	return wait
}

// fireDue dispatches every due job on its own goroutine so one slow
// delivery never delays the others. Jobs due at the same instant fire in
// arbitrary order.
func (e *Engine) fireDue(ctx context.Context) {
	now := time.Now().UTC()

	e.mu.Lock()
	var due []*entry
	for _, ent := range e.jobs {
		if !ent.firing && !ent.due.After(now) {
			ent.firing = true
			due = append(due, ent)
		}
	}
	e.mu.Unlock()

	for _, ent := range due {
		e.inFlight.Add(1)
		go e.fire(ctx, ent)
	}
}

// fire runs the handler for one job. The job stays in the table, flagged
// as firing, so it is never eligible to fire again until this firing's
// re-arm or finalize step has completed.
func (e *Engine) fire(ctx context.Context, ent *entry) {
	defer e.inFlight.Done()

	var next *time.Time
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error().Str("job_id", ent.job.ID).Any("panic", r).
					Msg("fire handler panicked; job left un-rearmed")
			}
		}()
		next = e.handler(ctx, ent.job)
	}()

	e.mu.Lock()
	switch {
	case ent.cancelled:
		// Cancellation raced with this firing; the firing was allowed to
		// complete, the job must not re-arm.
		delete(e.jobs, ent.job.ID)
	case next != nil:
		ent.due = next.UTC()
		ent.firing = false
	default:
		delete(e.jobs, ent.job.ID)
	}
	e.mu.Unlock()

	e.notify()
}

func (e *Engine) notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}
