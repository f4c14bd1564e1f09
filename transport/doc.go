// Package transport abstracts the pub/sub broker boundary.
//
// A Transport wraps a connected broker client whose network I/O runs on
// its own goroutines. Broker events (connect, disconnect, subscribe
// acknowledgment, message arrival) are surfaced through a Handlers set;
// every callback fires on a transport-owned goroutine, never on the
// caller's, so receivers must hand off into their own execution context
// before touching shared state.
//
// Three implementations are provided: MQTT (eclipse paho), NATS (topic
// syntax mapped onto subjects), and an in-process broker for tests and
// single-process deployments.
package transport
