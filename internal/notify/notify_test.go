package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"activities-service/internal/activities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock AWS Clients
// ==========================

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func createTestEvent(eventType activities.EventType) activities.ParticipantEvent {
	return activities.ParticipantEvent{
		ID:         "evt-1",
		Type:       eventType,
		Activity:   "Chess Club",
		Email:      "a@b.com",
		OccurredAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Email Tests
// ==========================

func TestEmailNotifier_SignupConfirmation(t *testing.T) {
	client := new(MockSES)
	client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Source) == "noreply@mergington.edu" &&
			len(in.Destination.ToAddresses) == 1 &&
			in.Destination.ToAddresses[0] == "a@b.com" &&
			aws.ToString(in.Message.Subject.Data) == "You're signed up for Chess Club"
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil).Once()

	n := NewEmailNotifier(client, "noreply@mergington.edu", time.Second)
	assert.Equal(t, "email", n.Name())
	require.NoError(t, n.Record(context.Background(), createTestEvent(activities.EventSignedUp)))
	client.AssertExpectations(t)
}

func TestEmailNotifier_UnregisterConfirmation(t *testing.T) {
	client := new(MockSES)
	client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Message.Subject.Data) == "You've been unregistered from Chess Club"
	})).Return(&ses.SendEmailOutput{}, nil).Once()

	n := NewEmailNotifier(client, "noreply@mergington.edu", 0)
	require.NoError(t, n.Record(context.Background(), createTestEvent(activities.EventUnregistered)))
	client.AssertExpectations(t)
}

func TestEmailNotifier_SendFailure(t *testing.T) {
	client := new(MockSES)
	client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()

	n := NewEmailNotifier(client, "noreply@mergington.edu", time.Second)
	err := n.Record(context.Background(), createTestEvent(activities.EventSignedUp))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a@b.com")
}

func TestEmailNotifier_UnknownEventType(t *testing.T) {
	client := new(MockSES)
	n := NewEmailNotifier(client, "noreply@mergington.edu", time.Second)

	err := n.Record(context.Background(), createTestEvent("participant_renamed"))
	assert.Error(t, err)
	client.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

// ==========================
// Event Publisher Tests
// ==========================

func TestEventPublisher_Publish(t *testing.T) {
	const topic = "arn:aws:sns:us-east-1:123456789012:activities"

	client := new(MockSNS)
	client.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		var decoded activities.ParticipantEvent
		if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &decoded); err != nil {
			return false
		}
		attr, ok := in.MessageAttributes["eventType"]
		return aws.ToString(in.TopicArn) == topic &&
			decoded.ID == "evt-1" &&
			decoded.Activity == "Chess Club" &&
			ok && aws.ToString(attr.StringValue) == "participant_signed_up"
	})).Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil).Once()

	p := NewEventPublisher(client, topic, time.Second)
	assert.Equal(t, "events", p.Name())
	require.NoError(t, p.Record(context.Background(), createTestEvent(activities.EventSignedUp)))
	client.AssertExpectations(t)
}

func TestEventPublisher_PublishFailure(t *testing.T) {
	client := new(MockSNS)
	client.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("topic not found")).Once()

	p := NewEventPublisher(client, "arn:aws:sns:us-east-1:123456789012:missing", time.Second)
	err := p.Record(context.Background(), createTestEvent(activities.EventUnregistered))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-1")
}
