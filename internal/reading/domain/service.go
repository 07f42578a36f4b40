package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for reading dates.
const DateLayout = "2006-01-02"

// Summary periods.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// SubmitReadingRequest carries one reading. Usage is nullable on the
// wire so an absent field is told apart from an explicit zero.
type SubmitReadingRequest struct {
	CustomerID   string              `json:"customerId"`
	Date         string              `json:"date"`
	Usage        decimal.NullDecimal `json:"usage"`
	CompositeKey string              `json:"compositeKey"`
}

type ImportCSVRequest struct {
	CustomerID string `json:"customerId"`
	FileURL    string `json:"fileUrl"`
}

type HistoryRequest struct {
	CustomerID string
	StartDate  string
	EndDate    string
}

type HistoryEntry struct {
	Date  string  `json:"date"`
	Usage float64 `json:"usage"`
}

type SummaryRequest struct {
	CustomerID string
	Period     string
}

type SummaryEntry struct {
	Period string  `json:"period"`
	Usage  float64 `json:"usage"`
}

type CostEntry struct {
	Month     string  `json:"month"`
	Cost      float64 `json:"cost"`
	Estimated bool    `json:"estimated"`
}

// Repository is the usage store: upsert-by-key writes plus per-customer
// scans and lexicographic sort-key range queries.
type Repository interface {
	Put(ctx context.Context, reading Reading) error
	PutBatch(ctx context.Context, readings []Reading) error
	ListAll(ctx context.Context, customerID string) ([]Reading, error)
	ListRange(ctx context.Context, customerID, startDate, endDate string) ([]Reading, error)
	GetByDate(ctx context.Context, customerID, date string) (*Reading, error)
}

type Service interface {
	Submit(context.Context, SubmitReadingRequest) (*Reading, error)
	ImportCSV(context.Context, ImportCSVRequest) (int, error)
	History(context.Context, HistoryRequest) ([]HistoryEntry, error)
	Summary(context.Context, SummaryRequest) ([]SummaryEntry, error)
	Costs(ctx context.Context, customerID string) ([]CostEntry, error)
}

var (
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidDate          = errors.New("invalid_date")
	ErrInvalidUsage         = errors.New("invalid_usage")
	ErrCompositeKeyMismatch = errors.New("composite_key_mismatch")
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrInvalidFileURL       = errors.New("invalid_file_url")
	ErrInvalidCSVHeader     = errors.New("invalid_csv_header")
	ErrMalformedCSVRow      = errors.New("malformed_csv_row")
)
