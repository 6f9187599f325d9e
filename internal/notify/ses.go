// internal/notify/ses.go
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the part of the SES client the notifier uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Email sends events as plain-text mail. Events without a recipient go to
// the default address.
type Email struct {
	client    SESService
	from      string
	defaultTo string
}

func NewEmail(client SESService, from, defaultTo string) *Email {
	return &Email{client: client, from: from, defaultTo: defaultTo}
}

func (e *Email) Notify(ctx context.Context, event Event) error {
	to := event.Recipient
	if to == "" {
		to = e.defaultTo
	}
	if to == "" {
		return nil
	}

	_, err := e.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(event.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(event.Text())},
			},
		},
		Source: aws.String(e.from),
	})
	return err
}
