package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/nats-io/nats.go"

	"github.com/agoradev/agora/pkg/slogx"
)

type natsTransport struct {
	nc   *nats.Conn
	subs *haxmap.Map[string, *nats.Subscription]

	mu       sync.Mutex
	handlers Handlers
}

// NATS returns a Transport over an existing NATS connection. Topic
// syntax is translated to subject syntax: '/' becomes '.', '+' becomes
// '*' and a trailing '#' becomes '>'. Topic levels must therefore not
// contain '.' themselves. QoS and retain flags have no NATS equivalent
// and are dropped on publish.
//
// The connection is owned by the caller; Disconnect drains this
// transport's subscriptions but leaves the connection open.
func NATS(nc *nats.Conn) Transport {
	return &natsTransport{
		nc:   nc,
		subs: haxmap.New[string, *nats.Subscription](),
	}
}

func (t *natsTransport) Protocol() string { return "nats" }

func (t *natsTransport) SetHandlers(h Handlers) {
	t.mu.Lock()
	t.handlers = h
	t.mu.Unlock()
}

func (t *natsTransport) current() Handlers {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handlers
}

func (t *natsTransport) Connect(ctx context.Context) error {
	if !t.nc.IsConnected() {
		return ErrNotConnected
	}
	go t.current().connect()
	return nil
}

func (t *natsTransport) Disconnect(ctx context.Context) error {
	t.subs.ForEach(func(filter string, sub *nats.Subscription) bool {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("nats unsubscribe failed", slogx.Topic(filter), slogx.Error(err))
		}
		t.subs.Del(filter)
		return true
	})
	return t.nc.Flush()
}

func (t *natsTransport) Publish(topic string, payload []byte, qos byte, retain bool) error {
	if !t.nc.IsConnected() {
		return ErrNotConnected
	}
	if qos > 0 || retain {
		slog.Debug("nats transport ignores qos/retain",
			slogx.Topic(topic), slog.Int("qos", int(qos)), slog.Bool("retain", retain))
	}
	return t.nc.Publish(topicToSubject(topic), payload)
}

func (t *natsTransport) Subscribe(filter string, qos byte) error {
	if !t.nc.IsConnected() {
		return ErrNotConnected
	}
	sub, err := t.nc.Subscribe(filterToSubject(filter), func(m *nats.Msg) {
		t.current().message(Inbound{
			Topic:   subjectToTopic(m.Subject),
			Payload: m.Data,
		})
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	t.subs.Set(filter, sub)

	go func() {
		// round-trip to the server stands in for a subscribe ack
		t.current().subscribeAck(t.nc.Flush())
	}()
	return nil
}

func (t *natsTransport) Unsubscribe(filter string) error {
	sub, ok := t.subs.Get(filter)
	if !ok {
		return nil
	}
	t.subs.Del(filter)
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe: %w", err)
	}
	return nil
}

func topicToSubject(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

func filterToSubject(filter string) string {
	subject := strings.ReplaceAll(filter, "/", ".")
	subject = strings.ReplaceAll(subject, "+", "*")
	return strings.ReplaceAll(subject, "#", ">")
}

func subjectToTopic(subject string) string {
	return strings.ReplaceAll(subject, ".", "/")
}
