package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	alertdomain "github.com/gridsense/wattkeeper/internal/alert/domain"
	"github.com/gridsense/wattkeeper/internal/alert/repository"
	"github.com/gridsense/wattkeeper/internal/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAlertService(t *testing.T, clk clock.Clock) (alertdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&alertdomain.ThresholdConfig{}))

	svc := NewService(ServiceParam{
		Log:   zap.NewNop(),
		Clock: clk,
		Repo:  repository.NewRepository(db),
	})
	return svc, db
}

func TestSetAndCurrent(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, db := setupAlertService(t, clk)

	_, err := svc.Set(context.Background(), alertdomain.SetThresholdRequest{
		CustomerID: "cust-1",
		Threshold:  decimal.NewNullDecimal(decimal.NewFromInt(100)),
	})
	require.NoError(t, err)

	config, err := svc.Current(context.Background(), "cust-1")
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.True(t, config.ThresholdKWh.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, clk.Now(), config.UpdatedAt)

	// The threshold column name must line up with the migration and the
	// upsert assignment list.
	var raw float64
	require.NoError(t, db.Raw(
		"SELECT threshold_kwh FROM alert_configs WHERE customer_id = ?", "cust-1",
	).Scan(&raw).Error)
	assert.InDelta(t, 100.0, raw, 1e-9)
}

func TestSet_OverwritesExisting(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupAlertService(t, clk)

	for _, threshold := range []int64{100, 250} {
		_, err := svc.Set(context.Background(), alertdomain.SetThresholdRequest{
			CustomerID: "cust-1",
			Threshold:  decimal.NewNullDecimal(decimal.NewFromInt(threshold)),
		})
		require.NoError(t, err)
	}

	config, err := svc.Current(context.Background(), "cust-1")
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.True(t, config.ThresholdKWh.Equal(decimal.NewFromInt(250)))

	configs, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, configs, 1)
}

func TestSet_Validation(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupAlertService(t, clk)

	_, err := svc.Set(context.Background(), alertdomain.SetThresholdRequest{
		Threshold: decimal.NewNullDecimal(decimal.NewFromInt(100)),
	})
	assert.ErrorIs(t, err, alertdomain.ErrInvalidCustomer)

	_, err = svc.Set(context.Background(), alertdomain.SetThresholdRequest{
		CustomerID: "cust-1",
		Threshold:  decimal.NewNullDecimal(decimal.NewFromInt(-5)),
	})
	assert.ErrorIs(t, err, alertdomain.ErrInvalidThreshold)

	_, err = svc.Set(context.Background(), alertdomain.SetThresholdRequest{CustomerID: "cust-1"})
	assert.ErrorIs(t, err, alertdomain.ErrInvalidThreshold)

	_, err = svc.Set(context.Background(), alertdomain.SetThresholdRequest{
		CustomerID: "cust-1",
		Threshold:  decimal.NewNullDecimal(decimal.Zero),
	})
	assert.NoError(t, err)
}

func TestCurrent_AbsentCustomer(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupAlertService(t, clk)

	config, err := svc.Current(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, config)

	_, err = svc.Current(context.Background(), "  ")
	assert.ErrorIs(t, err, alertdomain.ErrInvalidCustomer)
}
