package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
)

// sesAPI is the part of the SES client the sender needs.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES. Credentials come from the default
// AWS chain; the region is the only required setting.
type SESSender struct {
	region string
	client sesAPI
}

// NewSESSender loads the AWS configuration for region. An empty region yields
// a disabled sender.
func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	if region == "" {
		return &SESSender{}, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &SESSender{region: region, client: ses.NewFromConfig(cfg)}, nil
}

// Enabled reports whether a region and client are configured.
func (s *SESSender) Enabled() bool {
	return s.region != "" && s.client != nil
}

// Send calls SES SendEmail.
func (s *SESSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return Receipt{}, &DeliveryError{Provider: "ses", Message: apiErr.ErrorMessage()}
		}
		return Receipt{}, fmt.Errorf("failed to call ses: %w", err)
	}

	return Receipt{ID: aws.ToString(out.MessageId), Provider: "ses"}, nil
}
