package repository

import (
	"context"
	"errors"

	readingdomain "github.com/gridsense/wattkeeper/internal/reading/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type readingRepo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) readingdomain.Repository {
	return &readingRepo{db: db}
}

var upsertClause = clause.OnConflict{
	Columns:   []clause.Column{{Name: "customer_id"}, {Name: "sort_key"}},
	DoUpdates: clause.AssignmentColumns([]string{"date", "usage_kwh", "updated_at"}),
}

func (r *readingRepo) Put(ctx context.Context, reading readingdomain.Reading) error {
	return r.db.WithContext(ctx).
		Clauses(upsertClause).
		Create(&reading).Error
}

// PutBatch writes all readings in one transaction so a failure anywhere
// leaves nothing written.
func (r *readingRepo) PutBatch(ctx context.Context, readings []readingdomain.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range readings {
			if err := tx.Clauses(upsertClause).Create(&readings[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *readingRepo) ListAll(ctx context.Context, customerID string) ([]readingdomain.Reading, error) {
	var rows []readingdomain.Reading
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("sort_key ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *readingRepo) ListRange(ctx context.Context, customerID, startDate, endDate string) ([]readingdomain.Reading, error) {
	var rows []readingdomain.Reading
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND sort_key BETWEEN ? AND ?",
			customerID,
			readingdomain.SortKeyFor(customerID, startDate),
			readingdomain.SortKeyFor(customerID, endDate),
		).
		Order("sort_key ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *readingRepo) GetByDate(ctx context.Context, customerID, date string) (*readingdomain.Reading, error) {
	var row readingdomain.Reading
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND sort_key = ?", customerID, readingdomain.SortKeyFor(customerID, date)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
