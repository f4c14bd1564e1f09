package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/agoradev/agora/pkg/slogx"
)

// Handle tracks a single scheduled task.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Done is closed once the task has finished, for any reason.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task's result after Done is closed. Cancellation is
// reported as context.Canceled.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Scheduler owns the set of currently running tasks. The zero value is
// not usable; create one with New.
type Scheduler struct {
	mu      sync.Mutex
	active  map[*Handle]struct{}
	stopped bool
}

func New() *Scheduler {
	return &Scheduler{active: make(map[*Handle]struct{})}
}

// Schedule starts task on its own goroutine and adds it to the active
// set. The task is removed automatically when it completes, is cancelled,
// or fails. Scheduling after Stop returns a handle that is already done.
func (s *Scheduler) Schedule(task Task) *Handle {
	h := &Handle{done: make(chan struct{})}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		h.cancel = func() {}
		h.finish(context.Canceled)
		return h
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	s.active[h] = struct{}{}
	s.mu.Unlock()

	go func() {
		err := task.Run(ctx)
		cancel()

		s.mu.Lock()
		delete(s.active, h)
		s.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("scheduled task failed", slogx.Error(err))
		}
		h.finish(err)
	}()
	return h
}

// Stop cancels every active task and waits for all of them to finish.
// Cancellation results are swallowed; any other task failure is
// returned, joined.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	handles := make([]*Handle, 0, len(s.active))
	for h := range s.active {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	var errs []error
	for _, h := range handles {
		h.cancel()
		select {
		case <-h.Done():
			if err := h.Err(); err != nil && !errors.Is(err, context.Canceled) {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Join(errs...)
}

// TasksComplete blocks until the active set is empty, without cancelling
// anything. Tasks scheduled while waiting are waited for as well.
func (s *Scheduler) TasksComplete(ctx context.Context) error {
	for {
		s.mu.Lock()
		handles := make([]*Handle, 0, len(s.active))
		for h := range s.active {
			handles = append(handles, h)
		}
		s.mu.Unlock()

		if len(handles) == 0 {
			return nil
		}
		for _, h := range handles {
			select {
			case <-h.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Len reports the number of currently active tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
