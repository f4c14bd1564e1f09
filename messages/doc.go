// Package messages defines the envelope and metadata types exchanged
// between agents.
//
// An Envelope wraps arbitrary payload content with FIPA-style addressing
// and conversation fields. Envelope metadata travels separately from the
// payload once a message reaches the runtime: delivery hands the user
// handler a (content, Meta) pair, where Meta combines transport facts
// (topic, qos, retain) with whatever the envelope carried.
//
// Types that contribute metadata implement EnvelopeCapable. The runtime
// never probes values for methods at delivery time; only values
// implementing the interface are split.
package messages
