package agora

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/agoradev/agora/messages"
	"github.com/agoradev/agora/pkg/slogx"
	"github.com/agoradev/agora/scheduling"
)

// Handler processes the messages delivered to one agent. Invocation is
// synchronous with the agent's dispatch loop: a slow handler delays the
// next message for that agent, and messages arrive in FIFO order. A
// non-nil error is a handler fault and stops the agent.
type Handler interface {
	HandleMessage(ctx context.Context, content any, meta messages.Meta) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, content any, meta messages.Meta) error

func (f HandlerFunc) HandleMessage(ctx context.Context, content any, meta messages.Meta) error {
	return f(ctx, content, meta)
}

// Agent is an independently addressed unit of logic with its own inbox,
// dispatch loop and task scheduler. Create one with NewAgent; it starts
// consuming immediately.
type Agent struct {
	id        string
	container *Container
	handler   Handler

	inbox     *inboxQueue
	scheduler *scheduling.Scheduler

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error

	log *slog.Logger
}

// NewAgent registers a new agent with the container and starts its
// dispatch loop.
func NewAgent(c *Container, h Handler) (*Agent, error) {
	if h == nil {
		return nil, errors.New("agora: handler is required")
	}
	a := &Agent{
		container: c,
		handler:   h,
		inbox:     newInboxQueue(),
		scheduler: scheduling.New(),
		done:      make(chan struct{}),
	}

	id, err := c.Register(a)
	if err != nil {
		return nil, err
	}
	a.id = id
	a.log = c.log.With(slogx.AgentID(id))

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go a.consume(ctx)

	return a, nil
}

// ID returns the identifier the container assigned to this agent.
func (a *Agent) ID() string { return a.id }

// Done is closed when the dispatch loop has terminated, whether through
// shutdown or a handler fault.
func (a *Agent) Done() <-chan struct{} { return a.done }

// Err returns the handler fault that stopped this agent, or nil after a
// clean shutdown. Meaningful once Done is closed.
func (a *Agent) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Agent) setErr(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// ScheduleTask hands a background task to the agent's scheduler.
func (a *Agent) ScheduleTask(task scheduling.Task) *scheduling.Handle {
	return a.scheduler.Schedule(task)
}

// TasksComplete blocks until all of the agent's scheduled tasks have
// finished, without cancelling any.
func (a *Agent) TasksComplete(ctx context.Context) error {
	return a.scheduler.TasksComplete(ctx)
}

func (a *Agent) enqueue(priority int, content any, meta messages.Meta) {
	a.inbox.Put(entry{priority: priority, content: content, meta: meta})
}

func (a *Agent) consume(ctx context.Context) {
	defer close(a.done)
	for {
		e, err := a.inbox.Get(ctx)
		if err != nil {
			// cancellation is the expected way out
			return
		}
		meta := e.meta
		meta.Priority = e.priority

		if err := a.invoke(ctx, e.content, meta); err != nil {
			fault := fmt.Errorf("%w: %w", ErrHandlerFault, err)
			a.setErr(fault)
			a.log.Error("handler fault, stopping agent", slogx.Error(err))
			return
		}
	}
}

func (a *Agent) invoke(ctx context.Context, content any, meta messages.Meta) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return a.handler.HandleMessage(ctx, content, meta)
}

// Shutdown stops the agent: deregisters it from a still-running
// container, cancels the dispatch loop, waits for it to exit, then
// stops the scheduler. Idempotent; cancellation is never reported as an
// error.
func (a *Agent) Shutdown(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		if a.container.State() == Running {
			if derr := a.container.Deregister(a.id); derr != nil && !errors.Is(derr, ErrUnknownAgent) {
				err = derr
				return
			}
		}

		a.cancel()
		select {
		case <-a.done:
		case <-ctx.Done():
			err = ctx.Err()
			return
		}

		err = a.scheduler.Stop(ctx)
		if err == nil {
			a.log.Info("agent stopped")
		}
	})
	return err
}
