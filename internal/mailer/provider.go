package mailer

import (
	"context"
	"fmt"
	"strings"

	"contactgate/internal/logging"
)

// Provider names accepted by New.
const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderLog      = "log"
)

// Config selects and configures a provider.
type Config struct {
	Provider       string
	SMTP           SMTPConfig
	SendGridAPIKey string
	SendGridHost   string
	SESRegion      string
}

// New builds the sender named by cfg.Provider. A missing credential is not an
// error here; the returned sender reports Enabled() == false instead.
func New(ctx context.Context, cfg Config, log logging.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderSMTP, "":
		return NewSMTPSender(cfg.SMTP, log), nil
	case ProviderSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridHost, log), nil
	case ProviderSES:
		return NewSESSender(ctx, cfg.SESRegion)
	case ProviderLog:
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
