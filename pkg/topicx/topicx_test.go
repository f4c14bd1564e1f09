package topicx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"a/b/c", "a/b/c", true},
		{"a/b/c", "a/b/d", false},
		{"a/b/c", "a/b", false},
		{"a/b", "a/b/c", false},

		{"sensors/+/temp", "sensors/room1/temp", true},
		{"sensors/+/temp", "sensors/room1/humidity", false},
		{"sensors/+/temp", "sensors/room1/sub/temp", false},
		{"+/+/+", "a/b/c", true},
		{"+", "a/b", false},
		{"+", "a", true},

		{"a/#", "a/b/c", true},
		{"a/#", "a", true},
		{"#", "a/b/c", true},
		{"a/b/#", "a/b", true},
		{"a/b/#", "a/c", false},

		// empty levels are significant
		{"a//c", "a//c", true},
		{"a/+/c", "a//c", true},

		// topics starting with '$' are excluded from wildcard matching
		{"#", "$SYS/broker/load", false},
		{"+/broker/load", "$SYS/broker/load", false},
		{"$SYS/#", "$SYS/broker/load", true},
	}

	for _, tt := range tests {
		t.Run(tt.filter+" vs "+tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.filter, tt.topic))
		})
	}
}

func TestHasWildcard(t *testing.T) {
	assert.True(t, HasWildcard("a/+/c"))
	assert.True(t, HasWildcard("a/#"))
	assert.False(t, HasWildcard("a/b/c"))
}

func TestValidateFilter(t *testing.T) {
	t.Run("accepts well-formed filters", func(t *testing.T) {
		for _, f := range []string{"a", "a/b", "+", "#", "a/+/c", "a/b/#", "+/#"} {
			require.NoError(t, ValidateFilter(f), f)
		}
	})

	t.Run("rejects malformed filters", func(t *testing.T) {
		for _, f := range []string{"", "a/b#", "a/#/c", "a+/b", "#/a"} {
			require.Error(t, ValidateFilter(f), f)
		}
	})
}
