package agora

import "errors"

var (
	// ErrUnknownAgent reports an operation that referenced an agent id
	// that is not registered with the container.
	ErrUnknownAgent = errors.New("agora: unknown agent")

	// ErrSubscribeRejected reports that the broker refused a subscribe
	// call.
	ErrSubscribeRejected = errors.New("agora: subscribe rejected by broker")

	// ErrContainerStopped reports an operation on a container that is
	// shutting down or stopped.
	ErrContainerStopped = errors.New("agora: container stopped")

	// ErrHandlerFault wraps a failure that escaped a message handler.
	// It terminates that agent's dispatch loop and is observable via
	// Agent.Err; other agents and the container are unaffected.
	ErrHandlerFault = errors.New("agora: message handler fault")
)
