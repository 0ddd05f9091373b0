package mailer

import (
	"context"

	"github.com/google/uuid"

	"contactgate/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. Meant for
// development setups without provider credentials.
type LogSender struct {
	log logging.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log logging.Logger) *LogSender {
	if log == nil {
		log = logging.Discard()
	}
	return &LogSender{log: log}
}

// Enabled is always true.
func (s *LogSender) Enabled() bool { return true }

// Send logs msg and returns a fresh receipt.
func (s *LogSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	id := uuid.NewString()
	s.log.Info(ctx, "Email NOT sent (log provider)",
		"id", id,
		"from", msg.From,
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"html_length", len(msg.HTML))
	return Receipt{ID: id, Provider: "log"}, nil
}
