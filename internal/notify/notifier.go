// Package notify delivers lifecycle notifications to account owners and operators.
package notify

import (
	"context"
	"log/slog"
)

// Message is one outbound notification.
type Message struct {
	Subject    string
	Body       string
	Recipients []string
}

// Notifier delivers a message and reports success. Implementations never panic
// on delivery errors; they return false.
type Notifier interface {
	Send(ctx context.Context, msg Message) bool
}

// SafeSend calls n and converts a panic into a failed delivery.
func SafeSend(ctx context.Context, n Notifier, msg Message, logger *slog.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "notifier panicked",
					"subject", msg.Subject,
					"panic", r,
				)
			}
			ok = false
		}
	}()
	return n.Send(ctx, msg)
}

// Log writes notifications to the logger and reports them delivered.
// It stands in for email when no mail relay is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, msg Message) bool {
	l.logger.InfoContext(ctx, "notification not sent, no mail relay configured",
		"subject", msg.Subject,
		"recipients", msg.Recipients,
	)
	return true
}

// Fanout delivers through a primary notifier and copies the message to
// mirrors once the primary has delivered it. Only the primary's result is
// reported; mirrors are best-effort.
type Fanout struct {
	primary Notifier
	mirrors []Notifier
	logger  *slog.Logger
}

func NewFanout(primary Notifier, logger *slog.Logger, mirrors ...Notifier) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors, logger: logger}
}

func (f *Fanout) Send(ctx context.Context, msg Message) bool {
	if !SafeSend(ctx, f.primary, msg, f.logger) {
		return false
	}
	for _, m := range f.mirrors {
		if !SafeSend(ctx, m, msg, f.logger) && f.logger != nil {
			f.logger.WarnContext(ctx, "notification mirror failed", "subject", msg.Subject)
		}
	}
	return true
}
