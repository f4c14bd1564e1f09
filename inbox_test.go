package agora

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboxQueueFIFO(t *testing.T) {
	q := newInboxQueue()
	for i := 0; i < 5; i++ {
		q.Put(entry{priority: i, content: fmt.Sprintf("msg-%d", i)})
	}
	require.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		e, err := q.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("msg-%d", i), e.content)
		assert.Equal(t, i, e.priority, "priority travels with the entry but never reorders it")
	}
	assert.Equal(t, 0, q.Len())
}

func TestInboxQueueGetBlocks(t *testing.T) {
	q := newInboxQueue()

	got := make(chan entry, 1)
	go func() {
		e, err := q.Get(context.Background())
		if err == nil {
			got <- e
		}
	}()

	select {
	case <-got:
		t.Fatal("Get returned before anything was queued")
	case <-time.After(50 * time.Millisecond):
	}

	q.Put(entry{content: "late"})
	select {
	case e := <-got:
		assert.Equal(t, "late", e.content)
	case <-time.After(time.Second):
		t.Fatal("Get did not wake up on Put")
	}
}

func TestInboxQueueGetContextCancel(t *testing.T) {
	q := newInboxQueue()
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() {
		_, err := q.Get(ctx)
		errs <- err
	}()

	cancel()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Get did not observe cancellation")
	}
}

func TestInboxQueueClose(t *testing.T) {
	q := newInboxQueue()
	q.Put(entry{content: "before"})
	q.Close()

	// queued entries drain before the closed state surfaces
	e, err := q.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "before", e.content)

	_, err = q.Get(context.Background())
	assert.ErrorIs(t, err, errInboxClosed)

	q.Put(entry{content: "after"})
	assert.Equal(t, 0, q.Len(), "Put after Close is a no-op")
}

func TestInboxQueueConcurrentProducers(t *testing.T) {
	q := newInboxQueue()
	const producers, perProducer = 8, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Put(entry{content: p})
			}
		}(p)
	}
	wg.Wait()

	counts := make(map[any]int)
	for i := 0; i < producers*perProducer; i++ {
		e, err := q.Get(context.Background())
		require.NoError(t, err)
		counts[e.content]++
	}
	for p := 0; p < producers; p++ {
		assert.Equal(t, perProducer, counts[p])
	}
}
