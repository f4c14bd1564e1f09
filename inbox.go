package agora

import (
	"context"
	"errors"
	"sync"

	"github.com/agoradev/agora/messages"
)

// entry is one queued message: a priority tag, the payload content and
// its delivery metadata. Priority is advisory; queues are strictly FIFO.
type entry struct {
	priority int
	content  any
	meta     messages.Meta
}

var errInboxClosed = errors.New("agora: inbox closed")

// inboxQueue is an unbounded FIFO queue with a single consumer. Put
// never blocks and is safe to call from any goroutine; it is the
// hand-off point between broker callbacks and the runtime.
type inboxQueue struct {
	mu     sync.Mutex
	items  []entry
	notify chan struct{}
	closed bool
}

func newInboxQueue() *inboxQueue {
	return &inboxQueue{notify: make(chan struct{}, 1)}
}

func (q *inboxQueue) Put(e entry) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Get blocks until an entry is available, the queue is closed, or ctx is
// cancelled.
func (q *inboxQueue) Get(ctx context.Context) (entry, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			e := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return e, nil
		}
		if q.closed {
			q.mu.Unlock()
			return entry{}, errInboxClosed
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return entry{}, ctx.Err()
		}
	}
}

func (q *inboxQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *inboxQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}
