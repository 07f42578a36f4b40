// Package domain contains persistence models for energy usage readings.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading stores a single daily energy usage observation. The sort key is
// the customer id and date joined with "#"; range queries compare it
// lexicographically, which holds only because dates are fixed-width ISO.
type Reading struct {
	CustomerID string          `gorm:"primaryKey;type:text" json:"customerId"`
	SortKey    string          `gorm:"primaryKey;type:text" json:"-"`
	Date       string          `gorm:"type:text;not null" json:"date"`
	UsageKWh   decimal.Decimal `gorm:"column:usage_kwh;type:numeric;not null" json:"usage"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Reading) TableName() string { return "usage_readings" }

// SortKeyFor derives the range key for a customer and date.
func SortKeyFor(customerID, date string) string {
	return customerID + "#" + date
}
