// Package sweep runs the scheduled threshold alert job.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	alertdomain "github.com/gridsense/wattkeeper/internal/alert/domain"
	"github.com/gridsense/wattkeeper/internal/clock"
	"github.com/gridsense/wattkeeper/internal/config"
	notificationdomain "github.com/gridsense/wattkeeper/internal/notification/domain"
	"github.com/gridsense/wattkeeper/internal/observability/metrics"
	"github.com/gridsense/wattkeeper/internal/ratelimit"
	readingdomain "github.com/gridsense/wattkeeper/internal/reading/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const lockKey = "energy:sweep:lock"

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	Alerts   alertdomain.Service
	Readings readingdomain.Repository
	Notifier notificationdomain.Service
	Locker   *ratelimit.Locker      `optional:"true"`
	Metrics  *metrics.DomainMetrics `optional:"true"`
}

// Result reports one sweep run.
type Result struct {
	Processed        int
	Alerted          int
	AlertedCustomers []string
}

type Sweeper struct {
	log      *zap.Logger
	clock    clock.Clock
	alerts   alertdomain.Service
	readings readingdomain.Repository
	notifier notificationdomain.Service
	locker   *ratelimit.Locker
	metrics  *metrics.DomainMetrics

	runInterval time.Duration
	lockTTL     time.Duration
}

func New(p Params) *Sweeper {
	return &Sweeper{
		log:         p.Log.Named("sweep").With(zap.String("component", "sweep")),
		clock:       p.Clock,
		alerts:      p.Alerts,
		readings:    p.Readings,
		notifier:    p.Notifier,
		locker:      p.Locker,
		metrics:     p.Metrics,
		runInterval: p.Cfg.Sweep.RunInterval,
		lockTTL:     p.Cfg.Sweep.LockTTL,
	}
}

// Run scans every threshold config once, comparing yesterday's usage
// against it. Per-customer failures are isolated so one customer's
// error never blocks the rest.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	start := s.clock.Now()
	log := s.log.With(
		zap.String("job", "threshold_sweep"),
		zap.String("run_id", runID),
	)

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
		if err != nil {
			return Result{}, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			log.Info("sweep.skipped", zap.String("reason", "lock_held"))
			return Result{}, nil
		}
		defer func() {
			_ = s.locker.Release(ctx, lockKey, token)
		}()
	}

	if s.metrics != nil {
		s.metrics.SweepRuns.Inc()
	}
	log.Info("sweep.start")

	yesterday := s.clock.Now().UTC().AddDate(0, 0, -1).Format(readingdomain.DateLayout)

	configs, err := s.alerts.ListAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list alert configs: %w", err)
	}

	var (
		result     Result
		errs       error
		errorCount int
	)
	for _, cfg := range configs {
		result.Processed++

		if err := s.checkCustomer(ctx, cfg, yesterday, &result); err != nil {
			errorCount++
			if s.metrics != nil {
				s.metrics.SweepErrors.Inc()
			}
			log.Error("sweep.customer.failed",
				zap.String("customer_id", cfg.CustomerID),
				zap.Error(err),
			)
			errs = errors.Join(errs, fmt.Errorf("customer %s: %w", cfg.CustomerID, err))
		}
	}

	fields := []zap.Field{
		zap.String("date", yesterday),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Int("processed_count", result.Processed),
		zap.Int("alerted_count", result.Alerted),
		zap.Strings("alerted_customers", result.AlertedCustomers),
		zap.Int("error_count", errorCount),
	}
	if errorCount > 0 {
		log.Warn("sweep.finish", fields...)
	} else {
		log.Info("sweep.finish", fields...)
	}
	return result, errs
}

func (s *Sweeper) checkCustomer(ctx context.Context, cfg alertdomain.ThresholdConfig, date string, result *Result) error {
	reading, err := s.readings.GetByDate(ctx, cfg.CustomerID, date)
	if err != nil {
		return err
	}
	if reading == nil {
		return nil
	}
	// Strict comparison, not >=.
	if !reading.UsageKWh.GreaterThan(cfg.ThresholdKWh) {
		return nil
	}

	err = s.notifier.PublishAlert(ctx, notificationdomain.AlertMessage{
		CustomerID: cfg.CustomerID,
		Date:       date,
		Usage:      reading.UsageKWh,
		Threshold:  cfg.ThresholdKWh,
	})
	if err != nil {
		return err
	}

	result.Alerted++
	result.AlertedCustomers = append(result.AlertedCustomers, cfg.CustomerID)
	if s.metrics != nil {
		s.metrics.SweepAlerts.Inc()
	}
	return nil
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.runInterval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
