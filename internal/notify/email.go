// internal/notify/email.go
package notify

import (
	"context"
	"fmt"
	"time"

	"activities-service/internal/activities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const EmailSinkName = "email"

// SESService is the part of the SES client the notifier uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier sends the participant a confirmation for every change.
type EmailNotifier struct {
	client    SESService
	fromEmail string
	timeout   time.Duration
}

func NewEmailNotifier(client SESService, fromEmail string, timeout time.Duration) *EmailNotifier {
	return &EmailNotifier{client: client, fromEmail: fromEmail, timeout: timeout}
}

func (n *EmailNotifier) Name() string {
	return EmailSinkName
}

// Record implements activities.EventSink.
func (n *EmailNotifier) Record(ctx context.Context, event activities.ParticipantEvent) error {
	subject, body, err := renderEmail(event)
	if err != nil {
		return err
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	_, err = n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{event.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", event.Email, err)
	}
	return nil
}

func renderEmail(event activities.ParticipantEvent) (string, string, error) {
	switch event.Type {
	case activities.EventSignedUp:
		return fmt.Sprintf("You're signed up for %s", event.Activity),
			fmt.Sprintf("Hello,\n\n%s is now signed up for %s.\n", event.Email, event.Activity),
			nil
	case activities.EventUnregistered:
		return fmt.Sprintf("You've been unregistered from %s", event.Activity),
			fmt.Sprintf("Hello,\n\n%s is no longer signed up for %s.\n", event.Email, event.Activity),
			nil
	default:
		return "", "", fmt.Errorf("no email template for event type %q", event.Type)
	}
}
