// Package domain contains the per-customer alert threshold model.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ThresholdConfig stores the usage ceiling for one customer. At most one
// row exists per customer; writes overwrite.
type ThresholdConfig struct {
	CustomerID   string          `gorm:"primaryKey;type:text" json:"customerId"`
	ThresholdKWh decimal.Decimal `gorm:"column:threshold_kwh;type:numeric;not null" json:"threshold"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (ThresholdConfig) TableName() string { return "alert_configs" }
