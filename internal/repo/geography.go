// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the lookup-or-create operations for the
// district/locality hierarchy.
//
// Error semantics:
//   - Creation races are resolved by the unique indexes: a rejected insert is
//     followed by a re-fetch, so concurrent callers converge on one row.
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

// GetOrCreateDistrict returns the district with the given name, creating it
// if absent. Safe against concurrent creation: a unique-constraint rejection
// falls back to fetching the row the winner inserted.
func GetOrCreateDistrict(ctx context.Context, db *gorm.DB, name string) (*domain.District, error) {
	var d domain.District
	err := db.WithContext(ctx).Where("name = ?", name).First(&d).Error
	if err == nil {
		return &d, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	d = domain.District{Name: name, CreatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(&d).Error; err != nil {
		if isUniqueViolation(err) {
			var won domain.District
			if ferr := db.WithContext(ctx).Where("name = ?", name).First(&won).Error; ferr != nil {
				return nil, ferr
			}
			return &won, nil
		}
		return nil, err
	}
	return &d, nil
}

// GetOrCreateLocality returns the locality keyed by (name, districtID),
// creating it if absent, with the same race handling as districts.
func GetOrCreateLocality(ctx context.Context, db *gorm.DB, name string, districtID int64) (*domain.Locality, error) {
	var l domain.Locality
	err := db.WithContext(ctx).
		Where("name = ? AND district_id = ?", name, districtID).
		First(&l).Error
	if err == nil {
		return &l, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	l = domain.Locality{Name: name, DistrictID: districtID, CreatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(&l).Error; err != nil {
		if isUniqueViolation(err) {
			var won domain.Locality
			ferr := db.WithContext(ctx).
				Where("name = ? AND district_id = ?", name, districtID).
				First(&won).Error
			if ferr != nil {
				return nil, ferr
			}
			return &won, nil
		}
		return nil, err
	}
	return &l, nil
}

// ListDistricts returns all districts ordered by name.
func ListDistricts(ctx context.Context, db *gorm.DB) ([]domain.District, error) {
	var out []domain.District
	err := db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

// ListLocalities returns all localities of a district ordered by name.
func ListLocalities(ctx context.Context, db *gorm.DB, districtID int64) ([]domain.Locality, error) {
	var out []domain.Locality
	err := db.WithContext(ctx).
		Where("district_id = ?", districtID).
		Order("name ASC").
		Find(&out).Error
	return out, err
}
