// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file seeds the geographic catalogue on first boot
// from an embedded district→localities JSON file.
package repo

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

//go:embed districts_localities.json
var geographyJSON []byte

// SeedGeography loads the embedded district/locality catalogue into an empty
// database. Idempotent: when any district already exists the seed is skipped,
// so restarts and lazily created rows are both safe.
func SeedGeography(ctx context.Context, db *gorm.DB) error {
	var existing int64
	if err := db.WithContext(ctx).Model(&domain.District{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	var catalogue map[string][]string
	if err := json.Unmarshal(geographyJSON, &catalogue); err != nil {
		return fmt.Errorf("decode geography catalogue: %w", err)
	}

	// Deterministic insert order keeps generated ids stable across boots.
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, districtName := range names {
			d := domain.District{Name: districtName, CreatedAt: now}
			if err := tx.Create(&d).Error; err != nil {
				return err
			}
			for _, localityName := range catalogue[districtName] {
				l := domain.Locality{Name: localityName, DistrictID: d.ID, CreatedAt: now}
				if err := tx.Create(&l).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
