package transport

import (
	"context"
	"errors"
)

// ErrNotConnected is returned when an operation requires a live broker
// connection and there is none.
var ErrNotConnected = errors.New("transport: not connected")

// Inbound is a raw message delivered by the broker.
type Inbound struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// Handlers receives broker events. All callbacks are optional and are
// invoked on transport-owned goroutines.
type Handlers struct {
	// OnConnect fires when a connection to the broker is (re)established.
	OnConnect func()
	// OnConnectionLost fires when the connection drops unexpectedly.
	// Reconnection is the client's own business.
	OnConnectionLost func(err error)
	// OnSubscribeAck fires when the broker acknowledges the most recent
	// subscribe call. A non-nil error means the broker refused it.
	OnSubscribeAck func(err error)
	// OnMessage fires for every message arriving on a subscribed topic.
	OnMessage func(msg Inbound)
}

func (h Handlers) connect() {
	if h.OnConnect != nil {
		h.OnConnect()
	}
}

func (h Handlers) connectionLost(err error) {
	if h.OnConnectionLost != nil {
		h.OnConnectionLost(err)
	}
}

func (h Handlers) subscribeAck(err error) {
	if h.OnSubscribeAck != nil {
		h.OnSubscribeAck(err)
	}
}

func (h Handlers) message(msg Inbound) {
	if h.OnMessage != nil {
		h.OnMessage(msg)
	}
}

// Transport is the broker client boundary.
//
// Publish is fire-and-forget: a nil return means the client accepted the
// call, not that the message was delivered. Subscribe returns an error
// only on synchronous rejection; the broker's acknowledgment arrives
// later through Handlers.OnSubscribeAck.
type Transport interface {
	// Protocol names the wire protocol, e.g. "mqtt". It tags the
	// metadata of every delivered message.
	Protocol() string

	// SetHandlers installs the event callbacks. Must be called before
	// Connect.
	SetHandlers(h Handlers)

	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	Publish(topic string, payload []byte, qos byte, retain bool) error
	Subscribe(filter string, qos byte) error
	Unsubscribe(filter string) error
}
