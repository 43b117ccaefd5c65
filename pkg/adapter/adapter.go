// Package adapter defines the lifecycle contract of protocol adapters
// hosted by the server. An adapter owns a listener and translates its wire
// protocol into namespace core calls; the server starts every registered
// adapter and shuts them down together.
package adapter

import (
	"context"
)

// Adapter is a protocol-specific front end over the shared namespace core.
//
// Serve blocks until the context is cancelled or an unrecoverable error
// occurs; cancellation must trigger graceful shutdown. Stop may be called
// concurrently with Serve and must be idempotent.
type Adapter interface {
	Serve(ctx context.Context) error
	Stop(ctx context.Context) error

	// Protocol is the human-readable protocol name for logging.
	Protocol() string

	// Port is the listening port, 0 before Serve.
	Port() int
}
