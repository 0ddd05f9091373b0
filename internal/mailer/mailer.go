// Package mailer delivers the contact notification through one of several
// transactional mail providers.
package mailer

import (
	"context"
	"fmt"
	"net/mail"
)

// Message is a single outbound HTML notification.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Receipt is what a provider hands back for an accepted message.
type Receipt struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// Sender delivers messages. Enabled reports whether the provider credential is
// configured; Send must not be called when it is false.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// DeliveryError is a rejection reported by the provider itself. Its Message is
// safe to show to the submitter.
type DeliveryError struct {
	Provider string
	Message  string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s rejected message: %s", e.Provider, e.Message)
}

// splitAddress turns "Name <addr>" into its parts. A bare address yields an
// empty name.
func splitAddress(s string) (name, addr string, err error) {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse address %q: %w", s, err)
	}
	return a.Name, a.Address, nil
}
