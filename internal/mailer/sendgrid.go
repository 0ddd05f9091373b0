package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"contactgate/internal/logging"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	apiKey string
	host   string
	log    logging.Logger
}

// NewSendGridSender creates a sender. An empty host means api.sendgrid.com.
func NewSendGridSender(apiKey, host string, log logging.Logger) *SendGridSender {
	if log == nil {
		log = logging.Discard()
	}
	return &SendGridSender{apiKey: apiKey, host: host, log: log}
}

// Enabled reports whether an API key is configured.
func (s *SendGridSender) Enabled() bool {
	return s.apiKey != ""
}

// Send posts the message to SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	fromName, fromAddr, err := splitAddress(msg.From)
	if err != nil {
		return Receipt{}, err
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(fromName, fromAddr),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		"",
		msg.HTML,
	)
	if msg.ReplyTo != "" {
		message.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}

	request := sendgrid.GetRequest(s.apiKey, sendGridEndpoint, s.host)
	request.Method = http.MethodPost
	request.Body = sgmail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to call sendgrid: %w", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		s.log.Warn(ctx, "SendGrid returned error status", "status", response.StatusCode, "body", response.Body)
		return Receipt{}, &DeliveryError{Provider: "sendgrid", Message: sendGridErrorMessage(response.StatusCode, response.Body)}
	}

	id := firstHeader(response.Headers, "X-Message-Id")
	if id == "" {
		id = uuid.NewString()
	}
	return Receipt{ID: id, Provider: "sendgrid"}, nil
}

func sendGridErrorMessage(status int, body string) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		msgs := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fmt.Sprintf("sendgrid returned status %d", status)
}

func firstHeader(headers map[string][]string, name string) string {
	if v := http.Header(headers).Get(name); v != "" {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
