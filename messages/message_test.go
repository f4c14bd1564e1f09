package messages

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
)

func TestEnvelopeSplitContentAndMeta(t *testing.T) {
	replyBy := strfmt.DateTime(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	env := &Envelope{
		SenderID:       "agent0",
		SenderAddr:     "containerA/inbox",
		ReceiverID:     "agent1",
		ReceiverAddr:   "containerB/inbox",
		Content:        "hello",
		Performative:   Inform,
		ConversationID: "conv-1",
		ReplyWith:      "rw",
		InReplyTo:      "irt",
		ReplyBy:        replyBy,
	}

	content, meta := env.SplitContentAndMeta()
	assert.Equal(t, "hello", content)
	assert.Equal(t, "agent0", meta.SenderID)
	assert.Equal(t, "containerA/inbox", meta.SenderAddr)
	assert.Equal(t, "agent1", meta.ReceiverID)
	assert.Equal(t, "containerB/inbox", meta.ReceiverAddr)
	assert.Equal(t, Inform, meta.Performative)
	assert.Equal(t, "conv-1", meta.ConversationID)
	assert.Equal(t, replyBy, meta.ReplyBy)
	assert.Empty(t, meta.Topic, "transport fields are not part of envelope meta")
}

func TestMetaMerge(t *testing.T) {
	t.Run("fills fields from envelope meta", func(t *testing.T) {
		m := Meta{Protocol: "mqtt", Topic: "a/b", QoS: 1, Retain: true}
		m.Merge(Meta{SenderID: "agent0", ReceiverID: "agent1", Performative: Request})

		assert.Equal(t, "mqtt", m.Protocol)
		assert.Equal(t, "a/b", m.Topic)
		assert.Equal(t, byte(1), m.QoS)
		assert.True(t, m.Retain)
		assert.Equal(t, "agent0", m.SenderID)
		assert.Equal(t, "agent1", m.ReceiverID)
		assert.Equal(t, Request, m.Performative)
	})

	t.Run("zero fields do not overwrite", func(t *testing.T) {
		m := Meta{SenderID: "agent0", ConversationID: "conv-1"}
		m.Merge(Meta{ReceiverID: "agent1"})

		assert.Equal(t, "agent0", m.SenderID)
		assert.Equal(t, "conv-1", m.ConversationID)
		assert.Equal(t, "agent1", m.ReceiverID)
	})
}
