package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/alphadose/haxmap"

	"github.com/agoradev/agora/pkg/topicx"
	"github.com/agoradev/agora/pkg/uuidx"
)

const localQueueDepth = 256

// LocalBroker is an in-process broker. Every Client it hands out behaves
// like a connected broker client: subscribe acknowledgments and message
// deliveries arrive asynchronously on broker-owned goroutines, so code
// written against it exercises the same hand-off discipline a real
// broker demands.
type LocalBroker struct {
	clients *haxmap.Map[string, *localClient]
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{clients: haxmap.New[string, *localClient]()}
}

// Client returns a new, not yet connected Transport attached to this
// broker.
func (b *LocalBroker) Client() Transport {
	return &localClient{
		id:      uuidx.NewString(),
		broker:  b,
		filters: make(map[string]byte),
	}
}

func (b *LocalBroker) publish(msg Inbound) {
	b.clients.ForEach(func(_ string, c *localClient) bool {
		c.deliver(msg)
		return true
	})
}

type localClient struct {
	id     string
	broker *LocalBroker

	mu        sync.Mutex
	handlers  Handlers
	filters   map[string]byte
	queue     chan Inbound
	quit      chan struct{}
	connected bool
}

func (c *localClient) Protocol() string { return "local" }

func (c *localClient) SetHandlers(h Handlers) {
	c.mu.Lock()
	c.handlers = h
	c.mu.Unlock()
}

func (c *localClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = true
	c.queue = make(chan Inbound, localQueueDepth)
	c.quit = make(chan struct{})
	h := c.handlers
	c.mu.Unlock()

	c.broker.clients.Set(c.id, c)
	go c.pump()
	go h.connect()
	return nil
}

// pump delivers queued messages one at a time, preserving arrival order.
func (c *localClient) pump() {
	for {
		select {
		case msg := <-c.queue:
			c.mu.Lock()
			h := c.handlers
			c.mu.Unlock()
			h.message(msg)
		case <-c.quit:
			return
		}
	}
}

func (c *localClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	quit := c.quit
	c.mu.Unlock()

	c.broker.clients.Del(c.id)
	close(quit)
	return nil
}

func (c *localClient) Publish(topic string, payload []byte, qos byte, retain bool) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	c.broker.publish(Inbound{Topic: topic, Payload: payload, QoS: qos, Retain: retain})
	return nil
}

func (c *localClient) Subscribe(filter string, qos byte) error {
	if err := topicx.ValidateFilter(filter); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.filters[filter] = qos
	h := c.handlers
	c.mu.Unlock()

	// ack from a broker goroutine, like a real client would
	go h.subscribeAck(nil)
	return nil
}

func (c *localClient) Unsubscribe(filter string) error {
	c.mu.Lock()
	delete(c.filters, filter)
	c.mu.Unlock()
	return nil
}

func (c *localClient) deliver(msg Inbound) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	matched := false
	for filter := range c.filters {
		if topicx.Match(filter, msg.Topic) {
			matched = true
			break
		}
	}
	queue := c.queue
	c.mu.Unlock()

	if matched {
		queue <- msg
	}
}
