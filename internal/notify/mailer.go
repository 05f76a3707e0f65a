// Package notify sends the administrative e-mails the API emits on deletions.
//
// No real mail transport is wired up: both implementations "send" by writing a
// structured log line, which is enough for an operator to follow what would
// have been delivered. They differ only in the channel they report, so a
// deployment can tell local development traffic from production traffic.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rs/xid"
)

// Mailer delivers one message to the configured administrator address.
type Mailer interface {
	Send(ctx context.Context, subject, message string) error

	// Name identifies the delivery channel, e.g. "local" or "cloud".
	Name() string
}

// Address pair used by every message.
type Addresses struct {
	From string
	To   string
}

// LogMailer records messages in the log instead of delivering them.
type LogMailer struct {
	name   string
	addrs  Addresses
	logger *slog.Logger
}

var _ Mailer = (*LogMailer)(nil)

// NewLocalMailer is the development mailer.
func NewLocalMailer(addrs Addresses, logger *slog.Logger) *LogMailer {
	return &LogMailer{name: "local", addrs: addrs, logger: logger}
}

// NewCloudMailer is the production mailer.
func NewCloudMailer(addrs Addresses, logger *slog.Logger) *LogMailer {
	return &LogMailer{name: "cloud", addrs: addrs, logger: logger}
}

// New picks a mailer by mode ("local" or "cloud").
func New(mode string, addrs Addresses, logger *slog.Logger) (Mailer, error) {
	switch mode {
	case "", "local":
		return NewLocalMailer(addrs, logger), nil
	case "cloud":
		return NewCloudMailer(addrs, logger), nil
	default:
		return nil, fmt.Errorf("notify: unknown mail mode %q", mode)
	}
}

func (m *LogMailer) Name() string { return m.name }

// Send logs the message with a fresh message id. It only fails when ctx is
// already done.
func (m *LogMailer) Send(ctx context.Context, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify: sending %q: %w", subject, err)
	}

	m.logger.InfoContext(ctx, "mail sent",
		slog.String("mailer", m.name),
		slog.String("message_id", xid.New().String()),
		slog.String("from", m.addrs.From),
		slog.String("to", m.addrs.To),
		slog.String("subject", subject),
		slog.String("message", message),
	)
	return nil
}
