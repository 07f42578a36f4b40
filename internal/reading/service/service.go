package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gridsense/wattkeeper/internal/clock"
	"github.com/gridsense/wattkeeper/internal/config"
	"github.com/gridsense/wattkeeper/internal/observability/metrics"
	"github.com/gridsense/wattkeeper/internal/providers/objectstore"
	readingdomain "github.com/gridsense/wattkeeper/internal/reading/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const uploadsPrefix = "uploads/"

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Cfg     config.Config
	Clock   clock.Clock
	Repo    readingdomain.Repository
	Store   objectstore.Store
	Metrics *metrics.DomainMetrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	repo       readingdomain.Repository
	store      objectstore.Store
	metrics    *metrics.DomainMetrics
	ratePerKWh decimal.Decimal
}

func NewService(p ServiceParam) readingdomain.Service {
	return &Service{
		log:        p.Log.Named("reading.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		store:      p.Store,
		metrics:    p.Metrics,
		ratePerKWh: p.Cfg.RatePerKWh,
	}
}

func (s *Service) Submit(ctx context.Context, req readingdomain.SubmitReadingRequest) (*readingdomain.Reading, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, readingdomain.ErrInvalidCustomer
	}

	date := strings.TrimSpace(req.Date)
	if err := validateDate(date); err != nil {
		return nil, err
	}

	if !req.Usage.Valid || req.Usage.Decimal.IsNegative() {
		return nil, readingdomain.ErrInvalidUsage
	}
	usage := req.Usage.Decimal

	// The composite key is recomputed server-side. The field stays
	// required on the wire, but a value that disagrees with
	// customerId+date is rejected instead of trusted.
	sortKey := readingdomain.SortKeyFor(customerID, date)
	if strings.TrimSpace(req.CompositeKey) != sortKey {
		return nil, readingdomain.ErrCompositeKeyMismatch
	}

	now := s.clock.Now().UTC()
	reading := readingdomain.Reading{
		CustomerID: customerID,
		SortKey:    sortKey,
		Date:       date,
		UsageKWh:   usage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Put(ctx, reading); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReadingsIngested.WithLabelValues("api").Inc()
	}

	s.log.Info("reading stored",
		zap.String("customer_id", customerID),
		zap.String("date", date),
	)
	return &reading, nil
}

// ImportCSV fetches an uploaded CSV and writes every row in one
// transaction. A malformed row anywhere aborts the whole batch.
func (s *Service) ImportCSV(ctx context.Context, req readingdomain.ImportCSVRequest) (int, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return 0, readingdomain.ErrInvalidCustomer
	}

	key, err := objectKeyFromURL(req.FileURL)
	if err != nil {
		return 0, err
	}

	body, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	readings, err := s.parseCSV(body, customerID)
	if err != nil {
		return 0, err
	}

	if err := s.repo.PutBatch(ctx, readings); err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.ReadingsIngested.WithLabelValues("csv").Add(float64(len(readings)))
	}

	s.log.Info("csv imported",
		zap.String("customer_id", customerID),
		zap.String("key", key),
		zap.Int("rows", len(readings)),
	)
	return len(readings), nil
}

func (s *Service) parseCSV(body io.Reader, customerID string) ([]readingdomain.Reading, error) {
	reader := csv.NewReader(body)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, readingdomain.ErrInvalidCSVHeader
	}
	if len(header) != 2 ||
		strings.TrimSpace(header[0]) != "Date" ||
		strings.TrimSpace(header[1]) != "Usage" {
		return nil, readingdomain.ErrInvalidCSVHeader
	}

	now := s.clock.Now().UTC()
	var readings []readingdomain.Reading
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d", readingdomain.ErrMalformedCSVRow, row)
		}
		if len(record) != 2 {
			return nil, fmt.Errorf("%w: row %d", readingdomain.ErrMalformedCSVRow, row)
		}

		date := strings.TrimSpace(record[0])
		if err := validateDate(date); err != nil {
			return nil, fmt.Errorf("%w: row %d", readingdomain.ErrMalformedCSVRow, row)
		}
		usage, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil || usage.IsNegative() {
			return nil, fmt.Errorf("%w: row %d", readingdomain.ErrMalformedCSVRow, row)
		}

		readings = append(readings, readingdomain.Reading{
			CustomerID: customerID,
			SortKey:    readingdomain.SortKeyFor(customerID, date),
			Date:       date,
			UsageKWh:   usage,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return readings, nil
}

func (s *Service) History(ctx context.Context, req readingdomain.HistoryRequest) ([]readingdomain.HistoryEntry, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, readingdomain.ErrInvalidCustomer
	}

	start := strings.TrimSpace(req.StartDate)
	end := strings.TrimSpace(req.EndDate)

	var (
		rows []readingdomain.Reading
		err  error
	)
	if start != "" && end != "" {
		if err := validateDate(start); err != nil {
			return nil, err
		}
		if err := validateDate(end); err != nil {
			return nil, err
		}
		rows, err = s.repo.ListRange(ctx, customerID, start, end)
	} else {
		rows, err = s.repo.ListAll(ctx, customerID)
	}
	if err != nil {
		return nil, err
	}

	entries := make([]readingdomain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, readingdomain.HistoryEntry{
			Date:  row.Date,
			Usage: row.UsageKWh.InexactFloat64(),
		})
	}
	return entries, nil
}

func (s *Service) Summary(ctx context.Context, req readingdomain.SummaryRequest) ([]readingdomain.SummaryEntry, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, readingdomain.ErrInvalidCustomer
	}

	period := strings.ToLower(strings.TrimSpace(req.Period))
	switch period {
	case readingdomain.PeriodDaily, readingdomain.PeriodWeekly, readingdomain.PeriodMonthly:
	default:
		return nil, readingdomain.ErrInvalidPeriod
	}

	rows, err := s.repo.ListAll(ctx, customerID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]decimal.Decimal)
	for _, row := range rows {
		key, err := periodKey(period, row.Date)
		if err != nil {
			return nil, err
		}
		groups[key] = groups[key].Add(row.UsageKWh)
	}

	entries := make([]readingdomain.SummaryEntry, 0, len(groups))
	for key, total := range groups {
		entries = append(entries, readingdomain.SummaryEntry{
			Period: key,
			Usage:  total.InexactFloat64(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Period < entries[j].Period })
	return entries, nil
}

// Costs groups readings by calendar month and prices them with exact
// decimal arithmetic. The current UTC month is flagged as estimated
// because it is still accumulating readings.
func (s *Service) Costs(ctx context.Context, customerID string) ([]readingdomain.CostEntry, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, readingdomain.ErrInvalidCustomer
	}

	rows, err := s.repo.ListAll(ctx, customerID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]decimal.Decimal)
	for _, row := range rows {
		month, err := periodKey(readingdomain.PeriodMonthly, row.Date)
		if err != nil {
			return nil, err
		}
		groups[month] = groups[month].Add(row.UsageKWh)
	}

	currentMonth := s.clock.Now().UTC().Format("2006-01")
	entries := make([]readingdomain.CostEntry, 0, len(groups))
	for month, total := range groups {
		cost := total.Mul(s.ratePerKWh).Round(2)
		entries = append(entries, readingdomain.CostEntry{
			Month:     month,
			Cost:      cost.InexactFloat64(),
			Estimated: month == currentMonth,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Month < entries[j].Month })
	return entries, nil
}

func validateDate(date string) error {
	if _, err := time.Parse(readingdomain.DateLayout, date); err != nil {
		return readingdomain.ErrInvalidDate
	}
	return nil
}

// periodKey derives the grouping key for a stored date. Weekly keys are
// zero-padded so weeks 1-9 sort before week 10.
func periodKey(period, date string) (string, error) {
	switch period {
	case readingdomain.PeriodDaily:
		return date, nil
	case readingdomain.PeriodMonthly:
		if len(date) < 7 {
			return "", readingdomain.ErrInvalidDate
		}
		return date[:7], nil
	case readingdomain.PeriodWeekly:
		t, err := time.Parse(readingdomain.DateLayout, date)
		if err != nil {
			return "", readingdomain.ErrInvalidDate
		}
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	default:
		return "", readingdomain.ErrInvalidPeriod
	}
}

func objectKeyFromURL(fileURL string) (string, error) {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return "", readingdomain.ErrInvalidFileURL
	}
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", readingdomain.ErrInvalidFileURL
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	idx := strings.Index(path, uploadsPrefix)
	if idx < 0 || len(path) == idx+len(uploadsPrefix) {
		return "", readingdomain.ErrInvalidFileURL
	}
	return path[idx:], nil
}
