// Package sns backs the notification topic with AWS SNS.
package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gridsense/wattkeeper/internal/config"
	notificationdomain "github.com/gridsense/wattkeeper/internal/notification/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("sns",
	fx.Provide(NewTopic),
)

type topic struct {
	client   *awssns.Client
	topicARN string
}

// NewTopic builds an SNS-backed topic for the configured alert topic ARN.
func NewTopic(cfg config.Config) (notificationdomain.Topic, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &topic{
		client:   awssns.NewFromConfig(awsCfg),
		topicARN: cfg.AlertTopicARN,
	}, nil
}

func (t *topic) Subscribe(ctx context.Context, email string) (string, error) {
	out, err := t.client.Subscribe(ctx, &awssns.SubscribeInput{
		TopicArn: aws.String(t.topicARN),
		Protocol: aws.String("email"),
		Endpoint: aws.String(email),
	})
	if err != nil {
		return "", fmt.Errorf("subscribe: %w", err)
	}
	return aws.ToString(out.SubscriptionArn), nil
}

func (t *topic) List(ctx context.Context) ([]notificationdomain.Subscription, error) {
	var (
		subscriptions []notificationdomain.Subscription
		nextToken     *string
	)
	for {
		out, err := t.client.ListSubscriptionsByTopic(ctx, &awssns.ListSubscriptionsByTopicInput{
			TopicArn:  aws.String(t.topicARN),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		for _, sub := range out.Subscriptions {
			subscriptions = append(subscriptions, notificationdomain.Subscription{
				ARN:      aws.ToString(sub.SubscriptionArn),
				Endpoint: aws.ToString(sub.Endpoint),
			})
		}
		if out.NextToken == nil {
			return subscriptions, nil
		}
		nextToken = out.NextToken
	}
}

func (t *topic) Unsubscribe(ctx context.Context, arn string) error {
	_, err := t.client.Unsubscribe(ctx, &awssns.UnsubscribeInput{
		SubscriptionArn: aws.String(arn),
	})
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (t *topic) Publish(ctx context.Context, subject, message string) error {
	_, err := t.client.Publish(ctx, &awssns.PublishInput{
		TopicArn: aws.String(t.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
