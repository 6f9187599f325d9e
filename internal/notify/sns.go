// internal/notify/sns.go
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the part of the SNS client the notifier uses.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Topic publishes events to one SNS topic with the kind as a message
// attribute, so subscribers can filter.
type Topic struct {
	client   SNSService
	topicARN string
}

func NewTopic(client SNSService, topicARN string) *Topic {
	return &Topic{client: client, topicARN: topicARN}
}

func (t *Topic) Notify(ctx context.Context, event Event) error {
	_, err := t.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(t.topicARN),
		Subject:  aws.String(event.Subject),
		Message:  aws.String(event.Text()),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Kind),
			},
		},
	})
	return err
}
