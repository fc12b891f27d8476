// internal/notify/events.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"activities-service/internal/activities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const EventsSinkName = "events"

// SNSService is the part of the SNS client the publisher uses.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EventPublisher fans participant events out to an SNS topic.
type EventPublisher struct {
	client   SNSService
	topicARN string
	timeout  time.Duration
}

func NewEventPublisher(client SNSService, topicARN string, timeout time.Duration) *EventPublisher {
	return &EventPublisher{client: client, topicARN: topicARN, timeout: timeout}
}

func (p *EventPublisher) Name() string {
	return EventsSinkName
}

// Record implements activities.EventSink.
func (p *EventPublisher) Record(ctx context.Context, event activities.ParticipantEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Type)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
