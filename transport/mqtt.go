package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/agoradev/agora/pkg/slogx"
)

type mqttTransport struct {
	client mqtt.Client

	mu       sync.Mutex
	handlers Handlers
}

// MQTT returns a Transport backed by an eclipse paho client. The client
// reconnects on its own; no additional backoff is layered on top.
// Optional configure functions may tweak the paho options before the
// client is built.
func MQTT(brokerURL, clientID string, configure ...func(*mqtt.ClientOptions)) Transport {
	t := &mqttTransport{}

	o := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(true)
	o.SetOnConnectHandler(func(mqtt.Client) {
		t.current().connect()
	})
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		t.current().connectionLost(err)
	})
	o.SetDefaultPublishHandler(func(_ mqtt.Client, m mqtt.Message) {
		t.onMessage(m)
	})
	for _, fn := range configure {
		fn(o)
	}

	t.client = mqtt.NewClient(o)
	return t
}

func (t *mqttTransport) Protocol() string { return "mqtt" }

func (t *mqttTransport) SetHandlers(h Handlers) {
	t.mu.Lock()
	t.handlers = h
	t.mu.Unlock()
}

func (t *mqttTransport) current() Handlers {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handlers
}

func (t *mqttTransport) onMessage(m mqtt.Message) {
	t.current().message(Inbound{
		Topic:   m.Topic(),
		Payload: m.Payload(),
		QoS:     m.Qos(),
		Retain:  m.Retained(),
	})
}

func (t *mqttTransport) Connect(ctx context.Context) error {
	token := t.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (t *mqttTransport) Disconnect(ctx context.Context) error {
	// quiesce period lets in-flight acks settle
	t.client.Disconnect(250)
	return nil
}

func (t *mqttTransport) Publish(topic string, payload []byte, qos byte, retain bool) error {
	if !t.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	token := t.client.Publish(topic, qos, retain, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			slog.Warn("mqtt publish failed", slogx.Topic(topic), slogx.Error(err))
		}
	}()
	return nil
}

func (t *mqttTransport) Subscribe(filter string, qos byte) error {
	if !t.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	token := t.client.Subscribe(filter, qos, func(_ mqtt.Client, m mqtt.Message) {
		t.onMessage(m)
	})
	go func() {
		<-token.Done()
		t.current().subscribeAck(token.Error())
	}()
	return nil
}

func (t *mqttTransport) Unsubscribe(filter string) error {
	token := t.client.Unsubscribe(filter)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			slog.Warn("mqtt unsubscribe failed", slogx.Topic(filter), slogx.Error(err))
		}
	}()
	return nil
}
