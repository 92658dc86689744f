package commands

import (
	"context"
	"os/signal"
	"syscall"
)

// notifyContext is canceled on SIGINT or SIGTERM.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
