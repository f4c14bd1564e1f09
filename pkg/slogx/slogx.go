// Package slogx provides small helpers for building log/slog attributes
// used throughout the runtime.
package slogx

import "log/slog"

// Error returns a slog.Attr for the provided error under the key "error".
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Topic returns a slog.Attr for a pub/sub topic under the key "topic".
func Topic(topic string) slog.Attr {
	return slog.String("topic", topic)
}

// AgentID returns a slog.Attr for an agent identifier under the key "agent_id".
func AgentID(id string) slog.Attr {
	return slog.String("agent_id", id)
}

// ByteString creates a slog.Attr with the given key and the string
// representation of the byte slice value. Useful for logging payloads.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}
