package repository

import (
	"context"
	"errors"

	alertdomain "github.com/gridsense/wattkeeper/internal/alert/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type alertRepo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) alertdomain.Repository {
	return &alertRepo{db: db}
}

func (r *alertRepo) Set(ctx context.Context, config alertdomain.ThresholdConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"threshold_kwh", "updated_at"}),
		}).
		Create(&config).Error
}

func (r *alertRepo) Get(ctx context.Context, customerID string) (*alertdomain.ThresholdConfig, error) {
	var row alertdomain.ThresholdConfig
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *alertRepo) ListAll(ctx context.Context) ([]alertdomain.ThresholdConfig, error) {
	var rows []alertdomain.ThresholdConfig
	err := r.db.WithContext(ctx).
		Order("customer_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
