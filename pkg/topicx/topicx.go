// Package topicx implements MQTT-style topic filter matching.
//
// A topic is a '/'-separated hierarchy. A filter may contain '+' to match
// exactly one level and a trailing '#' to match the remaining suffix
// (including the empty suffix, so "a/#" matches "a").
package topicx

import (
	"fmt"
	"strings"
)

const (
	separator        = "/"
	singleWildcard   = "+"
	trailingWildcard = "#"
)

// Match reports whether topic matches the given filter under MQTT
// wildcard rules. Topics beginning with '$' are never matched by a
// filter that starts with a wildcard.
func Match(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if strings.HasPrefix(topic, "$") &&
		(strings.HasPrefix(filter, singleWildcard) || strings.HasPrefix(filter, trailingWildcard)) {
		return false
	}

	fl := strings.Split(filter, separator)
	tl := strings.Split(topic, separator)

	for i, level := range fl {
		if level == trailingWildcard {
			return i == len(fl)-1
		}
		if i >= len(tl) {
			return false
		}
		if level != singleWildcard && level != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
}

// HasWildcard reports whether s contains any wildcard character.
// Inbox topics must be concrete, this is the check for that.
func HasWildcard(s string) bool {
	return strings.Contains(s, singleWildcard) || strings.Contains(s, trailingWildcard)
}

// ValidateFilter checks that filter is a well-formed subscription filter:
// non-empty, '+' only as a whole level, and '#' only as the last level.
func ValidateFilter(filter string) error {
	if filter == "" {
		return fmt.Errorf("topic filter must not be empty")
	}
	levels := strings.Split(filter, separator)
	for i, level := range levels {
		switch {
		case strings.Contains(level, trailingWildcard):
			if level != trailingWildcard {
				return fmt.Errorf("'#' must occupy an entire level: %q", filter)
			}
			if i != len(levels)-1 {
				return fmt.Errorf("'#' must be the last level: %q", filter)
			}
		case strings.Contains(level, singleWildcard) && level != singleWildcard:
			return fmt.Errorf("'+' must occupy an entire level: %q", filter)
		}
	}
	return nil
}
