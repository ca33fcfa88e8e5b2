package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneShotIn(d time.Duration) TriggerSpec {
	return TriggerSpec{Kind: OneShot, First: time.Now().UTC().Add(d)}
}

func startEngine(t *testing.T, e *Engine) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("engine did not stop")
		}
	})
	return cancel
}

func TestEngineFiresOneShot(t *testing.T) {
	e := New(zerolog.Nop())

	fired := make(chan Job, 1)
	e.SetHandler(func(_ context.Context, job Job) *time.Time {
		fired <- job
		return nil
	})

	startEngine(t, e)

	require.NoError(t, e.Add(Job{
		ID:      "job-1",
		Trigger: oneShotIn(20 * time.Millisecond),
		Payload: Payload{ChatID: 42, EventName: "drink water"},
	}))

	select {
	case job := <-fired:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, int64(42), job.Payload.ChatID)
	case <-time.After(2 * time.Second):
		t.Fatal("job never fired")
	}

	// A finished one-shot leaves the table.
	assert.Eventually(t, func() bool { return !e.Pending("job-1") }, time.Second, 10*time.Millisecond)
}

func TestEngineRearmsWhenHandlerReturnsNext(t *testing.T) {
	e := New(zerolog.Nop())

	var mu sync.Mutex
	count := 0
	e.SetHandler(func(_ context.Context, _ Job) *time.Time {
		mu.Lock()
		defer mu.Unlock()
		count++
		if count < 3 {
			next := time.Now().UTC().Add(10 * time.Millisecond)
			return &next
		}
		return nil
	})

	startEngine(t, e)

	require.NoError(t, e.Add(Job{ID: "job-1", Trigger: oneShotIn(10 * time.Millisecond)}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return !e.Pending("job-1") }, time.Second, 10*time.Millisecond)
}

func TestEngineAddDuplicate(t *testing.T) {
	e := New(zerolog.Nop())

	require.NoError(t, e.Add(Job{ID: "job-1", Trigger: oneShotIn(time.Hour)}))
	err := e.Add(Job{ID: "job-1", Trigger: oneShotIn(time.Hour)})
	assert.ErrorIs(t, err, ErrDuplicateJob)
	assert.True(t, e.Pending("job-1"))
}

func TestEngineRemove(t *testing.T) {
	e := New(zerolog.Nop())

	require.NoError(t, e.Add(Job{ID: "job-1", Trigger: oneShotIn(time.Hour)}))
	e.Remove("job-1")
	assert.False(t, e.Pending("job-1"))

	// Removing an unknown job is a quiet no-op.
	e.Remove("job-1")
	e.Remove("never-existed")
}

func TestEngineCancelDuringFlight(t *testing.T) {
	e := New(zerolog.Nop())

	entered := make(chan struct{})
	release := make(chan struct{})
	e.SetHandler(func(_ context.Context, _ Job) *time.Time {
		close(entered)
		<-release
		next := time.Now().UTC().Add(time.Hour)
		return &next
	})

	startEngine(t, e)

	require.NoError(t, e.Add(Job{ID: "job-1", Trigger: oneShotIn(10 * time.Millisecond)}))

	<-entered
	// Cancel while the handler is still running, then let it finish.
	e.Remove("job-1")
	close(release)

	// The requested re-arm must lose to the cancellation.
	assert.Eventually(t, func() bool { return !e.Pending("job-1") }, time.Second, 10*time.Millisecond)
}

func TestEngineSurvivesHandlerPanic(t *testing.T) {
	e := New(zerolog.Nop())

	fired := make(chan string, 2)
	e.SetHandler(func(_ context.Context, job Job) *time.Time {
		fired <- job.ID
		if job.ID == "bad" {
			panic("boom")
		}
		return nil
	})

	startEngine(t, e)

	require.NoError(t, e.Add(Job{ID: "bad", Trigger: oneShotIn(10 * time.Millisecond)}))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("panicking job never fired")
	}

	// The loop keeps scheduling other jobs afterwards.
	require.NoError(t, e.Add(Job{ID: "good", Trigger: oneShotIn(10 * time.Millisecond)}))
	select {
	case id := <-fired:
		assert.Equal(t, "good", id)
	case <-time.After(2 * time.Second):
		t.Fatal("engine stopped firing after a panic")
	}
}

func TestEngineOverdueJobFiresImmediately(t *testing.T) {
	e := New(zerolog.Nop())

	fired := make(chan struct{}, 1)
	e.SetHandler(func(_ context.Context, _ Job) *time.Time {
		fired <- struct{}{}
		return nil
	})

	startEngine(t, e)

	// A one-shot whose instant already passed, as after downtime.
	require.NoError(t, e.Add(Job{
		ID:      "overdue",
		Trigger: TriggerSpec{Kind: OneShot, First: time.Now().UTC().Add(-time.Minute)},
	}))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("overdue job never fired")
	}
}
