package service

import (
	"context"
	"fmt"
	"strings"

	notificationdomain "github.com/gridsense/wattkeeper/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Topic notificationdomain.Topic
}

type Service struct {
	log   *zap.Logger
	topic notificationdomain.Topic
}

func NewService(p ServiceParam) notificationdomain.Service {
	return &Service{
		log:   p.Log.Named("notification.service"),
		topic: p.Topic,
	}
}

func (s *Service) Subscribe(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", notificationdomain.ErrInvalidEmail
	}

	arn, err := s.topic.Subscribe(ctx, email)
	if err != nil {
		return "", err
	}

	s.log.Info("subscription created", zap.String("subscription_arn", arn))
	return arn, nil
}

// Unsubscribe removes the subscription whose endpoint matches the email.
// Pending subscriptions cannot be removed through the topic API, so they
// count as not found.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return notificationdomain.ErrInvalidEmail
	}

	subscriptions, err := s.topic.List(ctx)
	if err != nil {
		return err
	}

	for _, sub := range subscriptions {
		if sub.Endpoint != email || sub.ARN == notificationdomain.PendingARN {
			continue
		}
		if err := s.topic.Unsubscribe(ctx, sub.ARN); err != nil {
			return err
		}
		s.log.Info("subscription removed", zap.String("subscription_arn", sub.ARN))
		return nil
	}
	return notificationdomain.ErrSubscriptionNotFound
}

// IsSubscribed reports whether the email has a confirmed subscription.
func (s *Service) IsSubscribed(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, notificationdomain.ErrInvalidEmail
	}

	subscriptions, err := s.topic.List(ctx)
	if err != nil {
		return false, err
	}

	for _, sub := range subscriptions {
		if sub.Endpoint == email && sub.ARN != notificationdomain.PendingARN {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) PublishAlert(ctx context.Context, alert notificationdomain.AlertMessage) error {
	message := fmt.Sprintf(
		"Alert: Your energy usage for %s was %s kWh, which exceeds your threshold of %s kWh.",
		alert.Date,
		alert.Usage.String(),
		alert.Threshold.String(),
	)
	if err := s.topic.Publish(ctx, "Energy Usage Alert", message); err != nil {
		return err
	}

	s.log.Info("alert published",
		zap.String("customer_id", alert.CustomerID),
		zap.String("date", alert.Date),
		zap.String("usage_kwh", alert.Usage.String()),
		zap.String("threshold_kwh", alert.Threshold.String()),
	)
	return nil
}
