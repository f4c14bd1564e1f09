package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectMapping(t *testing.T) {
	t.Run("topics", func(t *testing.T) {
		assert.Equal(t, "a.b.c", topicToSubject("a/b/c"))
		assert.Equal(t, "a/b/c", subjectToTopic("a.b.c"))
		assert.Equal(t, "inbox", topicToSubject("inbox"))
	})

	t.Run("filters", func(t *testing.T) {
		assert.Equal(t, "sensors.*.temp", filterToSubject("sensors/+/temp"))
		assert.Equal(t, "events.>", filterToSubject("events/#"))
		assert.Equal(t, ">", filterToSubject("#"))
		assert.Equal(t, "*", filterToSubject("+"))
	})

	t.Run("round trip", func(t *testing.T) {
		for _, topic := range []string{"a", "a/b", "agentA/inbox", "x/y/z"} {
			assert.Equal(t, topic, subjectToTopic(topicToSubject(topic)))
		}
	})
}
