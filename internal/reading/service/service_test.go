package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gridsense/wattkeeper/internal/clock"
	"github.com/gridsense/wattkeeper/internal/config"
	readingdomain "github.com/gridsense/wattkeeper/internal/reading/domain"
	"github.com/gridsense/wattkeeper/internal/reading/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type storeStub struct {
	objects map[string]string
}

func (s *storeStub) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	return "https://example.test/presign/" + key, nil
}

func (s *storeStub) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key: " + key)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *storeStub) ObjectURL(key string) string {
	return "https://customer-energy-usage.s3.us-east-2.amazonaws.com/" + key
}

func setupReadingService(t *testing.T, clk clock.Clock, store *storeStub) (readingdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&readingdomain.Reading{}))

	if store == nil {
		store = &storeStub{objects: map[string]string{}}
	}

	svc := NewService(ServiceParam{
		Log:   zap.NewNop(),
		Cfg:   config.Config{RatePerKWh: decimal.NewFromInt(5)},
		Clock: clk,
		Repo:  repository.NewRepository(db),
		Store: store,
	})
	return svc, db
}

func submit(t *testing.T, svc readingdomain.Service, customerID, date string, usage float64) {
	t.Helper()
	_, err := svc.Submit(context.Background(), readingdomain.SubmitReadingRequest{
		CustomerID:   customerID,
		Date:         date,
		Usage:        decimal.NewNullDecimal(decimal.NewFromFloat(usage)),
		CompositeKey: readingdomain.SortKeyFor(customerID, date),
	})
	require.NoError(t, err)
}

func TestSubmit_StoresReading(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	svc, db := setupReadingService(t, clk, nil)

	reading, err := svc.Submit(context.Background(), readingdomain.SubmitReadingRequest{
		CustomerID:   "cust-1",
		Date:         "2025-03-09",
		Usage:        decimal.NewNullDecimal(decimal.NewFromFloat(42.5)),
		CompositeKey: "cust-1#2025-03-09",
	})
	require.NoError(t, err)
	assert.Equal(t, "cust-1#2025-03-09", reading.SortKey)
	assert.Equal(t, clk.Now(), reading.CreatedAt)

	var stored readingdomain.Reading
	require.NoError(t, db.Where("customer_id = ?", "cust-1").First(&stored).Error)
	assert.True(t, stored.UsageKWh.Equal(decimal.NewFromFloat(42.5)))

	// The usage column name must line up with the migration and the
	// upsert assignment list.
	var raw float64
	require.NoError(t, db.Raw(
		"SELECT usage_kwh FROM usage_readings WHERE sort_key = ?", "cust-1#2025-03-09",
	).Scan(&raw).Error)
	assert.InDelta(t, 42.5, raw, 1e-9)
}

func TestSubmit_UpsertsOnSameDate(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, db := setupReadingService(t, clk, nil)

	submit(t, svc, "cust-1", "2025-03-09", 10)
	submit(t, svc, "cust-1", "2025-03-09", 25)

	var count int64
	require.NoError(t, db.Model(&readingdomain.Reading{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var stored readingdomain.Reading
	require.NoError(t, db.First(&stored).Error)
	assert.True(t, stored.UsageKWh.Equal(decimal.NewFromInt(25)))
}

func TestSubmit_Validation(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupReadingService(t, clk, nil)

	tests := []struct {
		name        string
		req         readingdomain.SubmitReadingRequest
		expectedErr error
	}{
		{
			name: "missing customer",
			req: readingdomain.SubmitReadingRequest{
				Date:         "2025-03-09",
				Usage:        decimal.NewNullDecimal(decimal.NewFromInt(1)),
				CompositeKey: "#2025-03-09",
			},
			expectedErr: readingdomain.ErrInvalidCustomer,
		},
		{
			name: "bad date",
			req: readingdomain.SubmitReadingRequest{
				CustomerID:   "cust-1",
				Date:         "03/09/2025",
				Usage:        decimal.NewNullDecimal(decimal.NewFromInt(1)),
				CompositeKey: "cust-1#03/09/2025",
			},
			expectedErr: readingdomain.ErrInvalidDate,
		},
		{
			name: "missing usage",
			req: readingdomain.SubmitReadingRequest{
				CustomerID:   "cust-1",
				Date:         "2025-03-09",
				CompositeKey: "cust-1#2025-03-09",
			},
			expectedErr: readingdomain.ErrInvalidUsage,
		},
		{
			name: "negative usage",
			req: readingdomain.SubmitReadingRequest{
				CustomerID:   "cust-1",
				Date:         "2025-03-09",
				Usage:        decimal.NewNullDecimal(decimal.NewFromInt(-1)),
				CompositeKey: "cust-1#2025-03-09",
			},
			expectedErr: readingdomain.ErrInvalidUsage,
		},
		{
			name: "composite key disagrees with customer and date",
			req: readingdomain.SubmitReadingRequest{
				CustomerID:   "cust-1",
				Date:         "2025-03-09",
				Usage:        decimal.NewNullDecimal(decimal.NewFromInt(1)),
				CompositeKey: "cust-2#2025-03-09",
			},
			expectedErr: readingdomain.ErrCompositeKeyMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestHistory_RangeIsInclusive(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupReadingService(t, clk, nil)

	for _, date := range []string{"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04"} {
		submit(t, svc, "cust-1", date, 10)
	}
	submit(t, svc, "cust-2", "2025-03-02", 99)

	entries, err := svc.History(context.Background(), readingdomain.HistoryRequest{
		CustomerID: "cust-1",
		StartDate:  "2025-03-02",
		EndDate:    "2025-03-03",
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-03-02", entries[0].Date)
	assert.Equal(t, "2025-03-03", entries[1].Date)
}

func TestHistory_NoRangeReturnsAllSorted(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupReadingService(t, clk, nil)

	submit(t, svc, "cust-1", "2025-03-03", 3)
	submit(t, svc, "cust-1", "2025-03-01", 1)
	submit(t, svc, "cust-1", "2025-03-02", 2)

	entries, err := svc.History(context.Background(), readingdomain.HistoryRequest{CustomerID: "cust-1"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2025-03-01", entries[0].Date)
	assert.Equal(t, "2025-03-03", entries[2].Date)
}

func TestSummary_Grouping(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupReadingService(t, clk, nil)

	submit(t, svc, "cust-1", "2025-01-15", 5.0)
	submit(t, svc, "cust-1", "2025-01-20", 3.2)
	submit(t, svc, "cust-1", "2025-02-01", 7.0)

	t.Run("daily", func(t *testing.T) {
		entries, err := svc.Summary(context.Background(), readingdomain.SummaryRequest{
			CustomerID: "cust-1",
			Period:     readingdomain.PeriodDaily,
		})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "2025-01-15", entries[0].Period)
		assert.InDelta(t, 5.0, entries[0].Usage, 1e-9)
	})

	t.Run("monthly", func(t *testing.T) {
		entries, err := svc.Summary(context.Background(), readingdomain.SummaryRequest{
			CustomerID: "cust-1",
			Period:     readingdomain.PeriodMonthly,
		})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "2025-01", entries[0].Period)
		assert.InDelta(t, 8.2, entries[0].Usage, 1e-9)
		assert.Equal(t, "2025-02", entries[1].Period)
		assert.InDelta(t, 7.0, entries[1].Usage, 1e-9)
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := svc.Summary(context.Background(), readingdomain.SummaryRequest{
			CustomerID: "cust-1",
			Period:     "yearly",
		})
		assert.ErrorIs(t, err, readingdomain.ErrInvalidPeriod)
	})
}

func TestSummary_WeeklyKeysSortAcrossWeekTen(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupReadingService(t, clk, nil)

	// 2025-02-26 falls in ISO week 9, 2025-03-04 in week 10.
	submit(t, svc, "cust-1", "2025-03-04", 4)
	submit(t, svc, "cust-1", "2025-02-26", 9)

	entries, err := svc.Summary(context.Background(), readingdomain.SummaryRequest{
		CustomerID: "cust-1",
		Period:     readingdomain.PeriodWeekly,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-W09", entries[0].Period)
	assert.Equal(t, "2025-W10", entries[1].Period)
}

func TestCosts_PricesAndEstimatedFlag(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC))
	svc, _ := setupReadingService(t, clk, nil)

	submit(t, svc, "cust-1", "2025-01-15", 5.0)
	submit(t, svc, "cust-1", "2025-01-20", 3.2)
	submit(t, svc, "cust-1", "2025-02-01", 7.0)

	entries, err := svc.Costs(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "2025-01", entries[0].Month)
	assert.InDelta(t, 41.0, entries[0].Cost, 1e-9)
	assert.False(t, entries[0].Estimated)

	assert.Equal(t, "2025-02", entries[1].Month)
	assert.InDelta(t, 35.0, entries[1].Cost, 1e-9)
	assert.True(t, entries[1].Estimated, "the current month is still accumulating readings")
}

func TestImportCSV_StoresAllRows(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	store := &storeStub{objects: map[string]string{
		"uploads/usage.csv": "Date,Usage\n2025-03-01,10.5\n2025-03-02,12\n",
	}}
	svc, db := setupReadingService(t, clk, store)

	count, err := svc.ImportCSV(context.Background(), readingdomain.ImportCSVRequest{
		CustomerID: "cust-1",
		FileURL:    "https://customer-energy-usage.s3.us-east-2.amazonaws.com/uploads/usage.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var stored int64
	require.NoError(t, db.Model(&readingdomain.Reading{}).Count(&stored).Error)
	assert.EqualValues(t, 2, stored)
}

func TestImportCSV_MalformedRowAbortsBatch(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	store := &storeStub{objects: map[string]string{
		"uploads/usage.csv": "Date,Usage\n2025-03-01,10.5\nnot-a-date,12\n2025-03-03,9\n",
	}}
	svc, db := setupReadingService(t, clk, store)

	_, err := svc.ImportCSV(context.Background(), readingdomain.ImportCSVRequest{
		CustomerID: "cust-1",
		FileURL:    "https://customer-energy-usage.s3.us-east-2.amazonaws.com/uploads/usage.csv",
	})
	require.ErrorIs(t, err, readingdomain.ErrMalformedCSVRow)

	var stored int64
	require.NoError(t, db.Model(&readingdomain.Reading{}).Count(&stored).Error)
	assert.EqualValues(t, 0, stored, "a malformed row must leave nothing written")
}

func TestImportCSV_RejectsWrongHeader(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	store := &storeStub{objects: map[string]string{
		"uploads/usage.csv": "Day,Kwh\n2025-03-01,10.5\n",
	}}
	svc, _ := setupReadingService(t, clk, store)

	_, err := svc.ImportCSV(context.Background(), readingdomain.ImportCSVRequest{
		CustomerID: "cust-1",
		FileURL:    "https://customer-energy-usage.s3.us-east-2.amazonaws.com/uploads/usage.csv",
	})
	assert.ErrorIs(t, err, readingdomain.ErrInvalidCSVHeader)
}

func TestImportCSV_RejectsURLWithoutUploadsKey(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	svc, _ := setupReadingService(t, clk, nil)

	_, err := svc.ImportCSV(context.Background(), readingdomain.ImportCSVRequest{
		CustomerID: "cust-1",
		FileURL:    "https://customer-energy-usage.s3.us-east-2.amazonaws.com/other/usage.csv",
	})
	assert.ErrorIs(t, err, readingdomain.ErrInvalidFileURL)
}
