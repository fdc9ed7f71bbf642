// Package services – Reconciler
//
// The reconciler diffs each candidate against the stored outage with the
// same external id and classifies it:
//
//   - not found            → insert, classify new
//   - found, fields equal  → touch last_checked only, classify unchanged
//   - found, fields differ → update in place, classify changed
//
// Outages absent from the batch are left untouched; expiry is derived at
// read time. All writes are single atomic insert-or-update statements keyed
// by the external id, so overlapping passes can never duplicate a row.

package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/domain"
	"github.com/kouranbot/outage-notifier/internal/repo"
)

// Reconciler applies candidates to the state store.
type Reconciler struct {
	DB *gorm.DB
}

// Reconcile processes one candidate and returns its classification plus the
// stored row as it exists after the call.
func (r *Reconciler) Reconcile(ctx context.Context, cand domain.Candidate) (domain.Classification, *domain.Outage, error) {
	tr := otel.Tracer("services/Reconciler")
	ctx, span := tr.Start(ctx, "Reconcile")
	span.SetAttributes(attribute.String("outage.id", cand.ID))
	defer span.End()

	now := time.Now().UTC()

	existing, err := repo.GetOutage(ctx, r.DB, cand.ID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// Insert-or-update: if a concurrent pass inserted the row between
		// the lookup and here, the conflict clause turns this into the
		// same in-place update a "changed" candidate would get.
		o := cand.ToOutage(now, now)
		if err := repo.UpsertOutage(ctx, r.DB, &o); err != nil {
			return domain.ClassUnchanged, nil, err
		}
		return domain.ClassNew, &o, nil

	case err != nil:
		return domain.ClassUnchanged, nil, err

	case existing.TrackedFieldsDiffer(cand):
		o := cand.ToOutage(existing.FirstSeen, now)
		if err := repo.UpsertOutage(ctx, r.DB, &o); err != nil {
			return domain.ClassUnchanged, nil, err
		}
		return domain.ClassChanged, &o, nil

	default:
		if err := repo.TouchLastChecked(ctx, r.DB, cand.ID, now); err != nil {
			return domain.ClassUnchanged, nil, err
		}
		existing.LastChecked = now
		return domain.ClassUnchanged, existing, nil
	}
}
