package agora

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/fogfish/opts"

	"github.com/agoradev/agora/codec"
	"github.com/agoradev/agora/internal/registry"
	"github.com/agoradev/agora/messages"
	"github.com/agoradev/agora/pkg/slogx"
	"github.com/agoradev/agora/pkg/topicx"
	"github.com/agoradev/agora/pkg/uuidx"
	"github.com/agoradev/agora/transport"
)

// State is a container or agent lifecycle phase.
type State int32

const (
	Created State = iota
	Running
	ShuttingDown
	Stopped
)

// inbox topic subscriptions use the highest service level; everything
// routed by receiver id should survive the broker
const inboxQoS = 2

// Container hosts agents and mediates their communication. Messages
// move either locally between hosted agents or across a broker
// transport; the container owns the routing table, the payload codec
// and the intake dispatch loop.
//
// All routing state is mutated only by container-owned goroutines;
// broker callbacks cross into the runtime through the intake queue.
type Container struct {
	name       string
	inboxTopic string
	codec      codec.Codec
	tr         transport.Transport

	agents registry.Registry[*Agent]
	routes *routingTable
	intake *inboxQueue

	state  atomic.Int32
	aidSeq atomic.Uint64

	loopCancel context.CancelFunc
	loopDone   chan struct{}

	log *slog.Logger
}

// New creates and starts a container. Without WithTransport it runs in
// pure local mode: every send loops back through the intake path. With
// a transport, New connects, and if an inbox topic is configured,
// subscribes it before returning.
func New(ctx context.Context, options ...opts.Option[Container]) (*Container, error) {
	c := &Container{
		codec:    codec.JSON{},
		agents:   registry.New[*Agent](),
		intake:   newInboxQueue(),
		loopDone: make(chan struct{}),
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	if c.name == "" {
		c.name = uuidx.NewString()
	}
	if c.inboxTopic != "" && topicx.HasWildcard(c.inboxTopic) {
		return nil, fmt.Errorf("agora: inbox topic %q must not contain wildcards", c.inboxTopic)
	}

	c.log = slog.Default().With(slog.String("container", c.name))
	c.routes = newRoutingTable(c.tr)

	if c.tr != nil {
		c.tr.SetHandlers(transport.Handlers{
			OnConnect: func() {
				c.log.Debug("connected to broker")
			},
			OnConnectionLost: func(err error) {
				c.log.Warn("connection to broker lost", slogx.Error(err))
			},
			OnSubscribeAck: c.routes.resolveSubscribeAck,
			OnMessage:      c.onInbound,
		})
		if err := c.tr.Connect(ctx); err != nil {
			return nil, fmt.Errorf("agora: connect transport: %w", err)
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.loopCancel = cancel
	c.state.Store(int32(Running))
	go c.dispatchLoop(loopCtx)

	if c.tr != nil && c.inboxTopic != "" {
		if err := c.routes.brokerSubscribe(ctx, c.inboxTopic, inboxQoS); err != nil {
			_ = c.Shutdown(ctx)
			return nil, fmt.Errorf("agora: subscribe inbox topic: %w", err)
		}
	}

	return c, nil
}

func (c *Container) Name() string { return c.name }

// InboxTopic returns the container's own inbox address, or "" when none
// is configured.
func (c *Container) InboxTopic() string { return c.inboxTopic }

func (c *Container) State() State {
	return State(c.state.Load())
}

func (c *Container) protocol() string {
	if c.tr != nil {
		return c.tr.Protocol()
	}
	return "local"
}

// Register stores the agent and returns its newly allocated id. The id
// is a valid routing target from this point on.
func (c *Container) Register(a *Agent) (string, error) {
	if c.State() != Running {
		return "", ErrContainerStopped
	}
	id := fmt.Sprintf("agent%d", c.aidSeq.Add(1)-1)
	c.agents.Add(id, a)
	c.log.Info("agent registered", slogx.AgentID(id))
	return id, nil
}

// Deregister removes the agent from the registry and detaches it from
// every subscription. Filters left without subscribers are unsubscribed
// from the broker. Safe to call for an agent with no subscriptions.
func (c *Container) Deregister(agentID string) error {
	if _, ok := c.agents.Get(agentID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}
	c.agents.Del(agentID)
	for _, filter := range c.routes.removeSubscriber(agentID) {
		c.log.Debug("subscription released", slogx.Topic(filter))
	}
	c.log.Info("agent deregistered", slogx.AgentID(agentID))
	return nil
}

// SubscribeForAgent subscribes agentID to a topic filter. The optional
// factory binds an expected content type for messages matching the
// filter. The call returns once the subscription is live, which for the
// filter's first subscriber means after the broker acknowledged it.
func (c *Container) SubscribeForAgent(ctx context.Context, agentID, filter string, qos byte, expected ...MessageFactory) error {
	if c.State() != Running {
		return ErrContainerStopped
	}
	if _, ok := c.agents.Get(agentID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}
	if err := topicx.ValidateFilter(filter); err != nil {
		return fmt.Errorf("agora: %w", err)
	}
	if c.inboxTopic != "" && filter == c.inboxTopic {
		return fmt.Errorf("agora: %q is the container inbox topic, delivery there is by receiver id", filter)
	}
	if len(expected) > 0 && expected[0] != nil {
		c.routes.setClass(filter, expected[0])
	}
	return c.routes.addSubscriber(ctx, agentID, filter, qos)
}

// SetExpectedClass binds an expected content type to a topic filter,
// independent of any subscription. The last binding per filter wins.
func (c *Container) SetExpectedClass(filter string, factory MessageFactory) error {
	if err := topicx.ValidateFilter(filter); err != nil {
		return fmt.Errorf("agora: %w", err)
	}
	c.routes.setClass(filter, factory)
	return nil
}

// Send delivers content to a topic. A message addressed to the
// container's own inbox topic without the retain flag short-circuits
// through the local intake path; everything else is encoded and
// published through the transport. Publish-level acceptance is all the
// success a remote send reports.
func (c *Container) Send(ctx context.Context, content any, receiverAddr string, options ...opts.Option[SendOptions]) error {
	if c.State() != Running {
		return ErrContainerStopped
	}
	var o SendOptions
	if err := opts.Apply(&o, options); err != nil {
		return err
	}

	msg := content
	if o.wrapEnvelope {
		env := o.envelope
		env.Content = content
		if env.ReceiverAddr == "" {
			env.ReceiverAddr = receiverAddr
		}
		if env.ReceiverID == "" {
			env.ReceiverID = o.ReceiverID
		}
		if env.SenderAddr == "" {
			env.SenderAddr = c.inboxTopic
		}
		msg = &env
	}

	if c.inboxTopic != "" && receiverAddr == c.inboxTopic && !o.Retain {
		c.loopback(msg, c.inboxTopic, o)
		return nil
	}
	if c.tr == nil {
		c.loopback(msg, receiverAddr, o)
		return nil
	}

	data, err := c.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("agora: encode outbound message: %w", err)
	}
	return c.tr.Publish(receiverAddr, data, o.QoS, o.Retain)
}

// loopback queues an outbound message into the intake path as if it had
// arrived from the broker.
func (c *Container) loopback(msg any, topic string, o SendOptions) {
	meta := messages.Meta{
		Protocol: c.protocol(),
		Topic:    topic,
		QoS:      o.QoS,
	}
	if o.ReceiverID != "" {
		meta.ReceiverID = o.ReceiverID
	}
	c.intake.Put(entry{priority: 0, content: msg, meta: meta})
}

// onInbound is the broker message callback. It runs on the transport's
// goroutine and must only decode and post; all routing state is touched
// by the dispatch loop.
func (c *Container) onInbound(in transport.Inbound) {
	meta := messages.Meta{
		Protocol: c.protocol(),
		Topic:    in.Topic,
		QoS:      in.QoS,
		Retain:   in.Retain,
	}

	msg := c.newMessageFor(in.Topic)
	if err := c.codec.Decode(in.Payload, msg); err != nil {
		c.log.Warn("dropping undecodable message",
			slogx.Topic(in.Topic), slogx.ByteString("payload", in.Payload), slogx.Error(err))
		return
	}
	c.intake.Put(entry{priority: 0, content: msg, meta: meta})
}

// newMessageFor picks the decode target for a topic: the bound expected
// type if one matches, the generic envelope otherwise.
func (c *Container) newMessageFor(topic string) any {
	if factory := c.routes.classFor(topic); factory != nil {
		return factory()
	}
	return new(messages.Envelope)
}

func (c *Container) dispatchLoop(ctx context.Context) {
	defer close(c.loopDone)
	for {
		e, err := c.intake.Get(ctx)
		if err != nil {
			return
		}
		c.dispatch(e)
	}
}

// dispatch routes one intake entry to agent inboxes. Envelope-capable
// content is split first so handlers receive payload and metadata
// separately; entries left with nil content are dropped. Fan-out is not
// transactional; once an inbox accepts an entry it stays delivered.
func (c *Container) dispatch(e entry) {
	content, meta := e.content, e.meta
	if ec, ok := content.(messages.EnvelopeCapable); ok {
		inner, envMeta := ec.SplitContentAndMeta()
		content = inner
		meta.Merge(envMeta)
	}
	if content == nil {
		c.log.Warn("dropping message without content", slogx.Topic(meta.Topic))
		return
	}

	if c.inboxTopic != "" && meta.Topic == c.inboxTopic {
		receiver, ok := c.agents.Get(meta.ReceiverID)
		if meta.ReceiverID == "" || !ok {
			c.log.Warn("dropping message for unknown receiver",
				slogx.Topic(meta.Topic), slogx.AgentID(meta.ReceiverID))
			return
		}
		receiver.enqueue(e.priority, content, meta)
		return
	}

	ids := c.routes.resolveRecipients(meta.Topic)
	if len(ids) == 0 {
		c.log.Warn("dropping message without subscribers", slogx.Topic(meta.Topic))
		return
	}
	for _, id := range ids {
		receiver, ok := c.agents.Get(id)
		if !ok {
			// deregistered between resolve and delivery
			continue
		}
		receiver.enqueue(e.priority, content, meta)
	}
}

// Shutdown stops the container: agents first, then the dispatch loop,
// then the broker transport. It does not return before the transport is
// fully stopped. Stopped is terminal; repeated calls return nil.
func (c *Container) Shutdown(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(Running), int32(ShuttingDown)) {
		return nil
	}

	var errs []error
	c.agents.ForEach(func(id string, a *Agent) bool {
		if err := a.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", id, err))
		}
		return true
	})

	c.loopCancel()
	select {
	case <-c.loopDone:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	if c.tr != nil {
		if err := c.tr.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect transport: %w", err))
		}
	}

	c.state.Store(int32(Stopped))
	c.log.Info("container stopped")
	return errors.Join(errs...)
}
