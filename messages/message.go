package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// Performative labels the communicative intent of an envelope, following
// the FIPA ACL performative set.
type Performative string

const (
	AcceptProposal  Performative = "accept-proposal"
	Agree           Performative = "agree"
	Cancel          Performative = "cancel"
	CallForProposal Performative = "cfp"
	Confirm         Performative = "confirm"
	Disconfirm      Performative = "disconfirm"
	Failure         Performative = "failure"
	Inform          Performative = "inform"
	InformIf        Performative = "inform-if"
	NotUnderstood   Performative = "not-understood"
	Propagate       Performative = "propagate"
	Propose         Performative = "propose"
	Proxy           Performative = "proxy"
	QueryIf         Performative = "query-if"
	QueryRef        Performative = "query-ref"
	Refuse          Performative = "refuse"
	RejectProposal  Performative = "reject-proposal"
	Request         Performative = "request"
	RequestWhen     Performative = "request-when"
	RequestWhenever Performative = "request-whenever"
	Subscribe       Performative = "subscribe"
)

// EnvelopeCapable is implemented by message types that carry routing and
// conversation metadata alongside their payload content. The runtime
// splits such values into (content, Meta) before delivery.
type EnvelopeCapable interface {
	SplitContentAndMeta() (content any, meta Meta)
}

// Envelope is the generic structured message exchanged between agents.
// Content holds the payload; every other field is envelope metadata.
type Envelope struct {
	SenderID     string `json:"sender_id,omitempty"`
	SenderAddr   string `json:"sender_addr,omitempty"`
	ReceiverID   string `json:"receiver_id,omitempty"`
	ReceiverAddr string `json:"receiver_addr,omitempty"`

	Content any `json:"content"`

	Performative   Performative    `json:"performative,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	ReplyWith      string          `json:"reply_with,omitempty"`
	InReplyTo      string          `json:"in_reply_to,omitempty"`
	ReplyBy        strfmt.DateTime `json:"reply_by,omitempty"`

	Language string `json:"language,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Ontology string `json:"ontology,omitempty"`
}

var _ EnvelopeCapable = (*Envelope)(nil)

// SplitContentAndMeta separates the payload from the envelope metadata.
func (e *Envelope) SplitContentAndMeta() (any, Meta) {
	return e.Content, Meta{
		SenderID:       e.SenderID,
		SenderAddr:     e.SenderAddr,
		ReceiverID:     e.ReceiverID,
		ReceiverAddr:   e.ReceiverAddr,
		Performative:   e.Performative,
		ConversationID: e.ConversationID,
		ReplyWith:      e.ReplyWith,
		InReplyTo:      e.InReplyTo,
		ReplyBy:        e.ReplyBy,
	}
}

// Raw is payload content delivered without interpretation.
type Raw []byte

// Meta is the routing and transport metadata attached to every delivered
// message. It is created fresh per delivery and never persisted.
type Meta struct {
	Protocol string `json:"network_protocol,omitempty"`
	Topic    string `json:"topic,omitempty"`
	QoS      byte   `json:"qos,omitempty"`
	Retain   bool   `json:"retain,omitempty"`

	// Priority is the inbox tag the message was queued with. Delivery is
	// FIFO regardless of its value.
	Priority int `json:"priority"`

	SenderID       string          `json:"sender_id,omitempty"`
	SenderAddr     string          `json:"sender_addr,omitempty"`
	ReceiverID     string          `json:"receiver_id,omitempty"`
	ReceiverAddr   string          `json:"receiver_addr,omitempty"`
	Performative   Performative    `json:"performative,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	ReplyWith      string          `json:"reply_with,omitempty"`
	InReplyTo      string          `json:"in_reply_to,omitempty"`
	ReplyBy        strfmt.DateTime `json:"reply_by,omitempty"`
}

// Merge copies every non-zero field of other into m. Transport fields
// (protocol, topic, qos, retain) are left untouched; they belong to the
// delivery, not the envelope.
func (m *Meta) Merge(other Meta) {
	if other.SenderID != "" {
		m.SenderID = other.SenderID
	}
	if other.SenderAddr != "" {
		m.SenderAddr = other.SenderAddr
	}
	if other.ReceiverID != "" {
		m.ReceiverID = other.ReceiverID
	}
	if other.ReceiverAddr != "" {
		m.ReceiverAddr = other.ReceiverAddr
	}
	if other.Performative != "" {
		m.Performative = other.Performative
	}
	if other.ConversationID != "" {
		m.ConversationID = other.ConversationID
	}
	if other.ReplyWith != "" {
		m.ReplyWith = other.ReplyWith
	}
	if other.InReplyTo != "" {
		m.InReplyTo = other.InReplyTo
	}
	if !time.Time(other.ReplyBy).IsZero() {
		m.ReplyBy = other.ReplyBy
	}
}
