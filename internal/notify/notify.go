package notify

import "context"

// Notifier delivers operator-visible messages. Decisions and cycle failures
// both go through this channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Nop discards all messages.
type Nop struct{}

func (Nop) Send(context.Context, string) error { return nil }
