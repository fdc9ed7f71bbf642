package repo

import (
	"context"
	"testing"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

func TestSeedGeography_PopulatesCatalogue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := SeedGeography(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	districts, err := ListDistricts(ctx, db)
	if err != nil {
		t.Fatalf("list districts: %v", err)
	}
	if len(districts) != 9 {
		t.Fatalf("want 9 districts, got %d", len(districts))
	}

	var plaines *domain.District
	for i := range districts {
		if districts[i].Name == "Plaines Wilhems" {
			plaines = &districts[i]
		}
	}
	if plaines == nil {
		t.Fatal("Plaines Wilhems missing from seed")
	}

	localities, err := ListLocalities(ctx, db, plaines.ID)
	if err != nil {
		t.Fatalf("list localities: %v", err)
	}
	found := false
	for _, l := range localities {
		if l.Name == "Quatre Bornes" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Quatre Bornes missing from Plaines Wilhems: %+v", localities)
	}
}

func TestSeedGeography_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := SeedGeography(ctx, db); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := SeedGeography(ctx, db); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var n int64
	if err := db.Model(&domain.District{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 9 {
		t.Fatalf("re-seed duplicated rows: %d districts", n)
	}
}

func TestSeedGeography_SkipsWhenDistrictsExist(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// A lazily created district means the catalogue was already bootstrapped
	// or the operator manages geography by hand; either way, keep out.
	if _, err := GetOrCreateDistrict(ctx, db, "custom"); err != nil {
		t.Fatalf("pre-create: %v", err)
	}
	if err := SeedGeography(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var n int64
	if err := db.Model(&domain.District{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("seed should have been skipped, got %d districts", n)
	}
}
