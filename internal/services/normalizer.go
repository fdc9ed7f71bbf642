// Package services – Normalizer
//
// The normalizer turns raw feed records into canonical candidates: it parses
// and validates the validity window, resolves free-text district/locality
// names to stable row ids (creating them on first sight), and collapses
// duplicate external ids within one batch, keeping the last occurrence.
// The feed is authoritative for current state, not history.

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/domain"
	"github.com/kouranbot/outage-notifier/internal/feed"
	"github.com/kouranbot/outage-notifier/internal/observability"
	"github.com/kouranbot/outage-notifier/internal/repo"
)

// Normalizer resolves raw feed records into reconciler candidates.
type Normalizer struct {
	DB      *gorm.DB
	Log     zerolog.Logger
	Metrics *observability.Metrics
}

// Normalize validates and resolves a full feed batch. Invalid records are
// skipped and logged; they never abort the batch. The returned slice keeps
// feed order except that a repeated external id replaces its earlier
// occurrence in place.
func (n *Normalizer) Normalize(ctx context.Context, records []feed.Record) []domain.Candidate {
	tr := otel.Tracer("services/Normalizer")
	ctx, span := tr.Start(ctx, "Normalize")
	span.SetAttributes(attribute.Int("feed.records", len(records)))
	defer span.End()

	out := make([]domain.Candidate, 0, len(records))
	index := make(map[string]int, len(records)) // external id -> position in out

	for _, rec := range records {
		cand, err := n.normalizeRecord(ctx, rec)
		if err != nil {
			n.Metrics.RecordsRejected.Inc()
			n.Log.Warn().
				Err(err).
				Str("outage_id", rec.ID).
				Str("locality", rec.Locality).
				Msg("skipping feed record")
			continue
		}

		if pos, seen := index[cand.ID]; seen {
			// Later occurrence wins within a batch.
			out[pos] = *cand
			continue
		}
		index[cand.ID] = len(out)
		out = append(out, *cand)
	}
	return out
}

// normalizeRecord validates one record and resolves its geography. A
// foreign-key/uniqueness race during lookup-or-create is retried once via
// re-resolution before the record is given up on.
func (n *Normalizer) normalizeRecord(ctx context.Context, rec feed.Record) (*domain.Candidate, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, ErrMissingID
	}
	locality := strings.TrimSpace(rec.Locality)
	district := strings.TrimSpace(rec.District)
	if locality == "" || district == "" {
		return nil, ErrMissingLocality
	}

	from, to, err := parseWindow(rec.From, rec.To)
	if err != nil {
		return nil, err
	}

	loc, err := n.resolveGeography(ctx, district, locality)
	if err != nil {
		// One retry: the first attempt may have lost a lookup-or-create
		// race whose winner is visible by now.
		loc, err = n.resolveGeography(ctx, district, locality)
		if err != nil {
			return nil, err
		}
	}

	return &domain.Candidate{
		ID:              rec.ID,
		LocalityID:      loc.ID,
		DistrictID:      loc.DistrictID,
		LocalityName:    locality,
		DistrictName:    district,
		Streets:         strings.TrimSpace(rec.Streets),
		DateDescription: strings.TrimSpace(rec.Date),
		FromTime:        from,
		ToTime:          to,
	}, nil
}

// resolveGeography maps (district, locality) names onto canonical rows,
// creating either level on first reference.
func (n *Normalizer) resolveGeography(ctx context.Context, district, locality string) (*domain.Locality, error) {
	d, err := repo.GetOrCreateDistrict(ctx, n.DB, district)
	if err != nil {
		return nil, err
	}
	return repo.GetOrCreateLocality(ctx, n.DB, locality, d.ID)
}

// parseWindow parses the record timestamps and enforces from < to.
func parseWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := parseFeedTime(fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseFeedTime(toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return from, to, nil
}

// parseFeedTime accepts RFC 3339 with or without sub-second precision.
func parseFeedTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTimestamp
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return time.Time{}, errors.Join(ErrBadTimestamp, err)
		}
	}
	return t.UTC(), nil
}
