package agora

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoradev/agora/messages"
	"github.com/agoradev/agora/scheduling"
)

func TestAgentRequiresHandler(t *testing.T) {
	c := newTestContainer(t, nil, "")
	_, err := NewAgent(c, nil)
	assert.Error(t, err)
}

func TestAgentDeliveryOrder(t *testing.T) {
	c := newTestContainer(t, nil, "")

	got := make(chan int, 10)
	a, err := NewAgent(c, HandlerFunc(func(ctx context.Context, content any, meta messages.Meta) error {
		got <- content.(int)
		return nil
	}))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		a.enqueue(10-i, i, messages.Meta{})
	}
	for i := 0; i < 10; i++ {
		select {
		case v := <-got:
			assert.Equal(t, i, v, "arrival order is preserved regardless of priority")
		case <-time.After(time.Second):
			t.Fatal("delivery stalled")
		}
	}
}

func TestAgentPriorityReachesHandler(t *testing.T) {
	c := newTestContainer(t, nil, "")

	prio := make(chan int, 1)
	a, err := NewAgent(c, HandlerFunc(func(ctx context.Context, content any, meta messages.Meta) error {
		prio <- meta.Priority
		return nil
	}))
	require.NoError(t, err)

	a.enqueue(7, "tagged", messages.Meta{})
	select {
	case p := <-prio:
		assert.Equal(t, 7, p)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestAgentScheduledTasks(t *testing.T) {
	c := newTestContainer(t, nil, "")

	a, err := NewAgent(c, HandlerFunc(func(ctx context.Context, content any, meta messages.Meta) error {
		return nil
	}))
	require.NoError(t, err)

	var ran atomic.Int32
	handle := a.ScheduleTask(scheduling.Instant(func(ctx context.Context) error {
		ran.Add(1)
		return nil
	}))

	select {
	case <-handle.Done():
		assert.NoError(t, handle.Err())
	case <-time.After(time.Second):
		t.Fatal("instant task did not run")
	}

	a.ScheduleTask(scheduling.Instant(func(ctx context.Context) error { return nil }))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.TasksComplete(ctx))
	assert.Equal(t, int32(1), ran.Load())
}

func TestAgentShutdown(t *testing.T) {
	c := newTestContainer(t, nil, "")

	a, err := NewAgent(c, HandlerFunc(func(ctx context.Context, content any, meta messages.Meta) error {
		return nil
	}))
	require.NoError(t, err)

	stop := make(chan struct{})
	a.ScheduleTask(scheduling.Conditional(
		func(ctx context.Context) error { return nil },
		func() bool {
			select {
			case <-stop:
				return true
			default:
				return false
			}
		},
		10*time.Millisecond,
	))
	close(stop)

	require.NoError(t, a.Shutdown(context.Background()))
	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatch loop did not stop")
	}
	assert.NoError(t, a.Err())
	assert.ErrorIs(t, c.Deregister(a.ID()), ErrUnknownAgent, "shutdown deregisters the agent")

	require.NoError(t, a.Shutdown(context.Background()), "shutdown is idempotent")
}
