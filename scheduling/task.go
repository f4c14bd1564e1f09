// Package scheduling runs cooperative background tasks for an agent.
//
// A Task is an opaque unit of work; the scheduling policy (one-shot,
// fixed time, periodic, condition-triggered) lives in the task itself,
// not in the Scheduler. The Scheduler only tracks the active set:
// schedule, cancel everything, or wait for natural completion.
package scheduling

import (
	"context"
	"time"
)

// TaskFunc is the work a task performs on each activation.
type TaskFunc func(ctx context.Context) error

// Task is a schedulable unit of work. Run is invoked on its own
// goroutine and should return promptly once ctx is cancelled.
type Task interface {
	Run(ctx context.Context) error
}

type instantTask struct {
	fn TaskFunc
}

func (t instantTask) Run(ctx context.Context) error {
	return t.fn(ctx)
}

// Instant returns a one-shot task that executes immediately.
func Instant(fn TaskFunc) Task {
	return instantTask{fn: fn}
}

type atTask struct {
	fn TaskFunc
	at time.Time
}

func (t atTask) Run(ctx context.Context) error {
	delay := time.Until(t.at)
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return t.fn(ctx)
}

// At returns a one-shot task that executes at the given point in time.
// A time in the past behaves like Instant.
func At(fn TaskFunc, at time.Time) Task {
	return atTask{fn: fn, at: at}
}

type periodicTask struct {
	fn    TaskFunc
	delay time.Duration
}

func (t periodicTask) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.delay)
	defer ticker.Stop()
	for {
		if err := t.fn(ctx); err != nil {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Periodic returns a task that executes fn immediately and then again
// after every delay, until cancelled or fn fails.
func Periodic(fn TaskFunc, delay time.Duration) Task {
	return periodicTask{fn: fn, delay: delay}
}

type conditionalTask struct {
	fn   TaskFunc
	cond func() bool
	poll time.Duration
}

func (t conditionalTask) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()
	for !t.cond() {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return t.fn(ctx)
}

// Conditional returns a one-shot task that executes fn as soon as cond
// reports true, polling at the given interval.
func Conditional(fn TaskFunc, cond func() bool, poll time.Duration) Task {
	return conditionalTask{fn: fn, cond: cond, poll: poll}
}
