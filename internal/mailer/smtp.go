package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"

	"github.com/google/uuid"
	"github.com/jordan-wright/email"

	"contactgate/internal/logging"
)

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	AuthUser string
	AuthPass string
}

type smtpSendFunc func(e *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error

// SMTPSender submits messages to an SMTP relay with STARTTLS.
type SMTPSender struct {
	cfg  SMTPConfig
	log  logging.Logger
	send smtpSendFunc
}

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg SMTPConfig, log logging.Logger) *SMTPSender {
	if log == nil {
		log = logging.Discard()
	}
	return &SMTPSender{
		cfg: cfg,
		log: log,
		send: func(e *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error {
			return e.SendWithStartTLS(addr, auth, tlsConfig)
		},
	}
}

// Enabled reports whether relay credentials are present.
func (s *SMTPSender) Enabled() bool {
	return s.cfg.Host != "" && s.cfg.AuthUser != "" && s.cfg.AuthPass != ""
}

// Send performs the SMTP transaction. The relay library has no context
// support, so a cancelled ctx abandons the wait but not the transaction.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	id := uuid.NewString()
	e := buildEmail(msg, id, s.cfg.Host)

	s.log.Debug(ctx, "Initiating SMTP connection",
		"host", s.cfg.Host,
		"port", s.cfg.Port)

	auth := smtp.PlainAuth("", s.cfg.AuthUser, s.cfg.AuthPass, s.cfg.Host)
	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	done := make(chan error, 1)
	go func() {
		done <- s.send(e, net.JoinHostPort(s.cfg.Host, s.cfg.Port), auth, tlsConfig)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		return Receipt{}, fmt.Errorf("failed to send email: %w", ctx.Err())
	}

	if err != nil {
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) {
			return Receipt{}, &DeliveryError{Provider: "smtp", Message: tpErr.Msg}
		}
		return Receipt{}, fmt.Errorf("failed to send email: %w", err)
	}

	return Receipt{ID: id, Provider: "smtp"}, nil
}

func buildEmail(msg Message, id, host string) *email.Email {
	e := email.NewEmail()
	e.From = msg.From
	e.To = []string{msg.To}
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	e.Headers.Set("Message-Id", "<"+id+"@"+host+">")
	return e
}
