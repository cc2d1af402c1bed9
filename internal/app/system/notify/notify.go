// Package notify delivers best-effort member notifications. Delivery
// failure never aborts the mutation that triggered it; callers log and
// move on.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Message is a channel-agnostic notification.
type Message struct {
	To      string // email address or phone, channel dependent
	Subject string
	Body    string
}

// Notifier sends a message over one channel.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier records notifications in the log without delivering
// them. It stands in for real email/WhatsApp transports in development
// and tests.
type LogNotifier struct {
	Channel string
	Log     *zap.Logger
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.Log.Info("notification",
		zap.String("channel", n.Channel),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// Fanout sends through every notifier, logging failures and never
// returning them.
type Fanout struct {
	Notifiers []Notifier
	Log       *zap.Logger
}

func (f *Fanout) Send(ctx context.Context, msg Message) error {
	for _, n := range f.Notifiers {
		if err := n.Send(ctx, msg); err != nil {
			f.Log.Warn("notification delivery failed",
				zap.String("to", msg.To),
				zap.Error(err))
		}
	}
	return nil
}
