// Package uuidx generates time-ordered unique identifiers.
package uuidx

import "github.com/google/uuid"

// New returns a new UUIDv7. It panics if the system source of randomness
// is unavailable.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a new UUIDv7 rendered as a string.
func NewString() string {
	return New().String()
}
