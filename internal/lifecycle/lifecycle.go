// Package lifecycle bridges OS shutdown signals into a context.Context
// covering the full SIGINT/SIGTERM/SIGQUIT set, so every pipeline stage
// can select on one ctx.Done() instead of each wiring its own signal
// channel.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignalShutdown returns a context canceled on SIGINT, SIGTERM, or
// SIGQUIT, along with a stop function that releases the signal
// subscription and cancels the context (callers should defer stop() once the context is no
// longer needed, per os/signal.NotifyContext's own contract).
func WithSignalShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}
