package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// SetThresholdRequest carries a new usage ceiling. Threshold is
// nullable on the wire so an absent field is told apart from an
// explicit zero.
type SetThresholdRequest struct {
	CustomerID string              `json:"customerId"`
	Threshold  decimal.NullDecimal `json:"threshold"`
}

type Repository interface {
	Set(ctx context.Context, config ThresholdConfig) error
	Get(ctx context.Context, customerID string) (*ThresholdConfig, error)
	ListAll(ctx context.Context) ([]ThresholdConfig, error)
}

type Service interface {
	Set(context.Context, SetThresholdRequest) (*ThresholdConfig, error)
	Current(ctx context.Context, customerID string) (*ThresholdConfig, error)
	ListAll(ctx context.Context) ([]ThresholdConfig, error)
}

var (
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrInvalidThreshold = errors.New("invalid_threshold")
)
