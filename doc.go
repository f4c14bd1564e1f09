// Package agora is a lightweight actor-style runtime in which agents
// exchange structured messages, routed either locally within one
// process or externally over a publish/subscribe broker.
//
// A Container hosts agents. Each Agent owns an unbounded FIFO inbox and
// a dispatch loop that hands (content, metadata) pairs to a
// user-supplied Handler, plus a scheduler for cooperative background
// tasks. The container routes messages: its own inbox topic delivers by
// receiver id, every other topic by wildcard subscription matching,
// fanning out to all interested agents.
//
// Two execution domains exist. The broker client runs network I/O on
// its own goroutines; the container and its agents run in
// container-owned goroutines. Every transition between the two crosses
// a thread-safe intake queue — broker callbacks only decode and post,
// never touch routing state. Subscribe calls for a new topic filter
// block until the broker acknowledges them, and at most one such
// acknowledgment is outstanding at any time.
//
// A minimal local setup:
//
//	c, err := agora.New(ctx)
//	if err != nil { ... }
//	defer c.Shutdown(ctx)
//
//	echo, err := agora.NewAgent(c, agora.HandlerFunc(
//		func(ctx context.Context, content any, meta messages.Meta) error {
//			fmt.Println("got", content, "on", meta.Topic)
//			return nil
//		}))
//	if err != nil { ... }
//
//	if err := c.SubscribeForAgent(ctx, echo.ID(), "sensors/+/temp", 0); err != nil { ... }
//	if err := c.Send(ctx, "21.5", "sensors/room1/temp"); err != nil { ... }
//
// Attach a transport (transport.MQTT, transport.NATS, or a
// transport.LocalBroker client) to route the same calls over a broker.
package agora
