// Package services – Matcher
//
// The matcher resolves the audience for a new or changed outage: every
// currently active user subscribed to the outage's locality. Subscriptions
// are always to a single locality (no district-level fan-out). Pure read.

package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/domain"
	"github.com/kouranbot/outage-notifier/internal/repo"
)

// Matcher resolves subscribed users for a locality.
type Matcher struct {
	DB *gorm.DB
}

// Match returns the active users subscribed to localityID. The underlying
// query is scoped to one locality so large subscriber counts never pull in
// unrelated subscription rows.
func (m *Matcher) Match(ctx context.Context, localityID int64) ([]domain.User, error) {
	tr := otel.Tracer("services/Matcher")
	ctx, span := tr.Start(ctx, "Match",
		trace.WithAttributes(attribute.Int64("locality.id", localityID)),
	)
	defer span.End()

	return repo.ListActiveSubscribers(ctx, m.DB, localityID)
}
