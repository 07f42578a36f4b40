// Package domain defines the email alert subscription surface.
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// PendingARN is the sentinel the pub/sub service returns as the
// subscription ARN until the email owner confirms.
const PendingARN = "PendingConfirmation"

// Subscription is one topic subscription as reported by the pub/sub
// service. Subscriptions are owned by the service, never persisted here.
type Subscription struct {
	ARN      string
	Endpoint string
}

// Topic is the pub/sub topic the notification manager delegates to.
type Topic interface {
	Subscribe(ctx context.Context, email string) (string, error)
	List(ctx context.Context) ([]Subscription, error)
	Unsubscribe(ctx context.Context, arn string) error
	Publish(ctx context.Context, subject, message string) error
}

type AlertMessage struct {
	CustomerID string
	Date       string
	Usage      decimal.Decimal
	Threshold  decimal.Decimal
}

type Service interface {
	Subscribe(ctx context.Context, email string) (string, error)
	Unsubscribe(ctx context.Context, email string) error
	IsSubscribed(ctx context.Context, email string) (bool, error)
	PublishAlert(ctx context.Context, alert AlertMessage) error
}

var (
	ErrInvalidEmail         = errors.New("invalid_email")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
)
