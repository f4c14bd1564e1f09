package scheduling

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantTask(t *testing.T) {
	s := New()

	var ran atomic.Bool
	h := s.Schedule(Instant(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}))

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not complete")
	}
	assert.True(t, ran.Load())
	assert.NoError(t, h.Err())
	assert.Equal(t, 0, s.Len(), "completed task must leave the active set")
}

func TestAtTask(t *testing.T) {
	s := New()

	var ranAt atomic.Int64
	start := time.Now()
	h := s.Schedule(At(func(ctx context.Context) error {
		ranAt.Store(int64(time.Since(start)))
		return nil
	}, start.Add(50*time.Millisecond)))

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not complete")
	}
	assert.GreaterOrEqual(t, time.Duration(ranAt.Load()), 40*time.Millisecond)
}

func TestPeriodicTask(t *testing.T) {
	s := New()

	var runs atomic.Int32
	h := s.Schedule(Periodic(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, 10*time.Millisecond))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelled periodic task did not stop")
	}
	assert.ErrorIs(t, h.Err(), context.Canceled)
}

func TestConditionalTask(t *testing.T) {
	s := New()

	var gate atomic.Bool
	var ran atomic.Bool
	h := s.Schedule(Conditional(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}, gate.Load, 5*time.Millisecond))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load(), "must not run before the condition holds")

	gate.Store(true)
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("conditional task did not fire")
	}
	assert.True(t, ran.Load())
}

func TestSchedulerStop(t *testing.T) {
	t.Run("swallows cancellation, keeps other failures", func(t *testing.T) {
		s := New()

		s.Schedule(Periodic(func(ctx context.Context) error { return nil }, 5*time.Millisecond))
		boom := errors.New("boom")
		h := s.Schedule(Instant(func(ctx context.Context) error { return boom }))
		<-h.Done()

		err := s.Stop(context.Background())
		assert.NoError(t, err, "failure of an already-finished task is not re-reported")
		assert.Equal(t, 0, s.Len())
	})

	t.Run("schedule after stop is a no-op task", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Stop(context.Background()))

		h := s.Schedule(Instant(func(ctx context.Context) error {
			t.Error("should not run")
			return nil
		}))
		<-h.Done()
		assert.ErrorIs(t, h.Err(), context.Canceled)
	})
}

func TestTasksComplete(t *testing.T) {
	s := New()

	release := make(chan struct{})
	s.Schedule(Instant(func(ctx context.Context) error {
		<-release
		return nil
	}))

	waited := make(chan error, 1)
	go func() { waited <- s.TasksComplete(context.Background()) }()

	select {
	case <-waited:
		t.Fatal("TasksComplete returned while a task was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-waited:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("TasksComplete did not return")
	}

	t.Run("honors context", func(t *testing.T) {
		s := New()
		s.Schedule(Periodic(func(ctx context.Context) error { return nil }, 5*time.Millisecond))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, s.TasksComplete(ctx), context.DeadlineExceeded)

		require.NoError(t, s.Stop(context.Background()))
	})
}
