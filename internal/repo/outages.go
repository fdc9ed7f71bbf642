// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Outage
// model.
//
// Concurrency notes:
//   - The primary key is the externally assigned outage id, so two
//     overlapping reconciliation passes can never create duplicate rows.
//   - InsertOutage degrades to an in-place update on conflict (insert with
//     conflict resolving to update); first_seen is excluded from the update
//     set and therefore immutable after creation.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

// trackedColumns are the columns rewritten when a stored outage conflicts
// with a fresh candidate. first_seen is deliberately absent.
var trackedColumns = []string{
	"locality_id", "district_id", "streets", "date_description",
	"from_time", "to_time", "last_checked",
}

// GetOutage fetches an outage by external id or returns ErrNotFound.
func GetOutage(ctx context.Context, db *gorm.DB, id string) (*domain.Outage, error) {
	var o domain.Outage
	err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpsertOutage atomically inserts the outage or, when a row with the same
// external id already exists, updates its tracked fields in place.
func UpsertOutage(ctx context.Context, db *gorm.DB, o *domain.Outage) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(trackedColumns),
		}).
		Create(o).Error
}

// TouchLastChecked records that a reconciliation pass observed the outage
// without any tracked-field change.
func TouchLastChecked(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Outage{}).
		Where("id = ?", id).
		Update("last_checked", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveOutages returns outages whose validity window has not yet
// passed, ordered by start time. Expiry is computed here at read time;
// stale rows are never deleted.
func ListActiveOutages(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Outage, error) {
	var out []domain.Outage
	err := db.WithContext(ctx).
		Where("to_time > ?", now.UTC()).
		Order("from_time ASC, id ASC").
		Find(&out).Error
	return out, err
}
