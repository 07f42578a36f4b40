package service

import (
	"context"
	"strings"

	alertdomain "github.com/gridsense/wattkeeper/internal/alert/domain"
	"github.com/gridsense/wattkeeper/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
	Repo  alertdomain.Repository
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	repo  alertdomain.Repository
}

func NewService(p ServiceParam) alertdomain.Service {
	return &Service{
		log:   p.Log.Named("alert.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Set(ctx context.Context, req alertdomain.SetThresholdRequest) (*alertdomain.ThresholdConfig, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, alertdomain.ErrInvalidCustomer
	}
	if !req.Threshold.Valid || req.Threshold.Decimal.IsNegative() {
		return nil, alertdomain.ErrInvalidThreshold
	}

	config := alertdomain.ThresholdConfig{
		CustomerID:   customerID,
		ThresholdKWh: req.Threshold.Decimal,
		UpdatedAt:    s.clock.Now().UTC(),
	}
	if err := s.repo.Set(ctx, config); err != nil {
		return nil, err
	}

	s.log.Info("threshold set",
		zap.String("customer_id", customerID),
		zap.String("threshold_kwh", req.Threshold.Decimal.String()),
	)
	return &config, nil
}

// Current returns the stored threshold, or nil when the customer has
// never set one.
func (s *Service) Current(ctx context.Context, customerID string) (*alertdomain.ThresholdConfig, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, alertdomain.ErrInvalidCustomer
	}
	return s.repo.Get(ctx, customerID)
}

func (s *Service) ListAll(ctx context.Context) ([]alertdomain.ThresholdConfig, error) {
	return s.repo.ListAll(ctx)
}
