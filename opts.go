package agora

import (
	"github.com/fogfish/opts"

	"github.com/agoradev/agora/codec"
	"github.com/agoradev/agora/messages"
	"github.com/agoradev/agora/transport"
)

// Container construction options.
var (
	// WithName sets the container's name, used as the logging identity
	// and broker client id. Defaults to a generated id.
	WithName = opts.ForName[Container, string]("name")

	// WithInboxTopic sets the container's own inbox address. Messages
	// arriving on exactly this topic are routed by receiver id instead
	// of pattern matching. Must not contain wildcards.
	WithInboxTopic = opts.ForName[Container, string]("inboxTopic")

	// WithCodec sets the payload codec. Defaults to codec.JSON.
	WithCodec = opts.ForName[Container, codec.Codec]("codec")

	// WithTransport attaches a broker transport. Without one the
	// container runs in pure local mode.
	WithTransport = opts.ForName[Container, transport.Transport]("tr")
)

// SendOptions is the single structured set of send-time flags. Build it
// through the With* options on Send.
type SendOptions struct {
	// ReceiverID addresses a specific agent when the topic alone does
	// not identify one (inbox-topic delivery).
	ReceiverID string
	// QoS is passed through to the transport.
	QoS byte
	// Retain asks the broker to retain the message; it also forces a
	// broker round-trip for messages addressed to the own inbox topic.
	Retain bool

	wrapEnvelope bool
	envelope     messages.Envelope
}

var (
	WithReceiverID = opts.ForName[SendOptions, string]("ReceiverID")
	WithQoS        = opts.ForName[SendOptions, byte]("QoS")
	WithRetain     = opts.ForName[SendOptions, bool]("Retain")
)

// AsEnvelope wraps the content in a messages.Envelope before sending,
// filling receiver and sender addressing from the send parameters.
func AsEnvelope() opts.Option[SendOptions] {
	return opts.Type[SendOptions](func(o *SendOptions) error {
		o.wrapEnvelope = true
		return nil
	})
}

// WithEnvelope is AsEnvelope with explicit header fields. Fields left
// zero are completed from the send parameters.
func WithEnvelope(header messages.Envelope) opts.Option[SendOptions] {
	return opts.Type[SendOptions](func(o *SendOptions) error {
		o.wrapEnvelope = true
		o.envelope = header
		return nil
	})
}
