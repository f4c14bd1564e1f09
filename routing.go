package agora

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/agoradev/agora/pkg/topicx"
	"github.com/agoradev/agora/transport"
)

// MessageFactory produces a fresh value for the decoder to fill. Bind
// one to a topic filter to receive typed content instead of the generic
// envelope.
type MessageFactory func() any

type subscriptionEntry struct {
	qos    byte
	agents map[string]struct{}
}

// pendingSubscription is the single outstanding subscribe-ack handle.
// The broker resolves it through resolveSubscribeAck; done is buffered
// so resolution never blocks the broker goroutine.
type pendingSubscription struct {
	filter string
	done   chan error
}

// routingTable maps topic filters to interested agents and to expected
// content types. Broker subscribe round-trips are serialized: a new
// filter's subscribe call waits for the broker acknowledgment before
// returning, and at most one acknowledgment is outstanding at a time.
type routingTable struct {
	tr transport.Transport // nil in pure local mode

	mu      sync.Mutex
	subs    map[string]*subscriptionEntry
	classes *orderedmap.OrderedMap[string, MessageFactory]
	pending *pendingSubscription

	// held across subscribe+ack; enforces the single-pending invariant
	subscribeMu sync.Mutex
}

func newRoutingTable(tr transport.Transport) *routingTable {
	return &routingTable{
		tr:      tr,
		subs:    make(map[string]*subscriptionEntry),
		classes: orderedmap.New[string, MessageFactory](),
	}
}

// join adds agentID to an existing entry. It reports false when the
// filter has no entry yet.
func (rt *routingTable) join(filter, agentID string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	e, ok := rt.subs[filter]
	if !ok {
		return false
	}
	e.agents[agentID] = struct{}{}
	return true
}

// addSubscriber registers agentID's interest in filter. The first
// subscriber of a filter pays the broker round-trip; later ones return
// immediately.
func (rt *routingTable) addSubscriber(ctx context.Context, agentID, filter string, qos byte) error {
	if rt.join(filter, agentID) {
		return nil
	}

	rt.subscribeMu.Lock()
	defer rt.subscribeMu.Unlock()

	// may have lost the race for the first subscription
	if rt.join(filter, agentID) {
		return nil
	}

	// entry goes in before the broker call so deliveries racing the ack
	// already resolve
	rt.mu.Lock()
	rt.subs[filter] = &subscriptionEntry{qos: qos, agents: map[string]struct{}{agentID: {}}}
	rt.mu.Unlock()

	if err := rt.subscribeLocked(ctx, filter, qos); err != nil {
		rt.dropEntry(filter)
		return err
	}
	return nil
}

// subscribeLocked performs one broker subscribe round-trip and waits for
// the acknowledgment. Callers must hold subscribeMu.
func (rt *routingTable) subscribeLocked(ctx context.Context, filter string, qos byte) error {
	if rt.tr == nil {
		return nil
	}

	p := &pendingSubscription{filter: filter, done: make(chan error, 1)}
	rt.mu.Lock()
	rt.pending = p
	rt.mu.Unlock()

	if err := rt.tr.Subscribe(filter, qos); err != nil {
		rt.clearPending(p)
		return fmt.Errorf("%w: %w", ErrSubscribeRejected, err)
	}

	select {
	case err := <-p.done:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSubscribeRejected, err)
		}
		return nil
	case <-ctx.Done():
		rt.clearPending(p)
		return ctx.Err()
	}
}

// brokerSubscribe runs a subscribe round-trip for a topic that is not
// tracked in the table, such as the container's own inbox topic.
func (rt *routingTable) brokerSubscribe(ctx context.Context, filter string, qos byte) error {
	rt.subscribeMu.Lock()
	defer rt.subscribeMu.Unlock()
	return rt.subscribeLocked(ctx, filter, qos)
}

// resolveSubscribeAck completes the outstanding subscribe call. Invoked
// from the transport's goroutine.
func (rt *routingTable) resolveSubscribeAck(err error) {
	rt.mu.Lock()
	p := rt.pending
	rt.pending = nil
	rt.mu.Unlock()

	if p == nil {
		slog.Debug("subscribe ack without pending subscription")
		return
	}
	p.done <- err
}

func (rt *routingTable) clearPending(p *pendingSubscription) {
	rt.mu.Lock()
	if rt.pending == p {
		rt.pending = nil
	}
	rt.mu.Unlock()
}

func (rt *routingTable) dropEntry(filter string) {
	rt.mu.Lock()
	delete(rt.subs, filter)
	rt.mu.Unlock()
}

// removeSubscriber detaches agentID from every entry. Entries left with
// no agents are removed and unsubscribed from the broker. The
// unsubscribed filters are returned.
func (rt *routingTable) removeSubscriber(agentID string) []string {
	rt.mu.Lock()
	var empty []string
	for filter, e := range rt.subs {
		if _, ok := e.agents[agentID]; !ok {
			continue
		}
		delete(e.agents, agentID)
		if len(e.agents) == 0 {
			delete(rt.subs, filter)
			empty = append(empty, filter)
		}
	}
	rt.mu.Unlock()

	if rt.tr != nil {
		for _, filter := range empty {
			if err := rt.tr.Unsubscribe(filter); err != nil {
				slog.Warn("broker unsubscribe failed", slog.String("filter", filter))
			}
		}
	}
	return empty
}

// resolveRecipients returns the ids of every agent whose subscription
// filter matches topic.
func (rt *routingTable) resolveRecipients(topic string) []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	seen := make(map[string]struct{})
	var ids []string
	for filter, e := range rt.subs {
		if !topicx.Match(filter, topic) {
			continue
		}
		for id := range e.agents {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// setClass binds a content factory to a filter, replacing any previous
// binding for the same filter. Bindings are independent of subscription
// reference counts.
func (rt *routingTable) setClass(filter string, factory MessageFactory) {
	rt.mu.Lock()
	rt.classes.Set(filter, factory)
	rt.mu.Unlock()
}

// classFor returns the factory of the first binding whose filter
// matches topic, in binding registration order, or nil.
func (rt *routingTable) classFor(topic string) MessageFactory {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for pair := rt.classes.Oldest(); pair != nil; pair = pair.Next() {
		if topicx.Match(pair.Key, topic) {
			return pair.Value
		}
	}
	return nil
}
