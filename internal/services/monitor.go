// Package services – Monitor
//
// The monitor runs one full reconciliation cycle: fetch the feed, normalize
// records into candidates, reconcile each against the state store, then fan
// new outages out to subscribers. A cycle never aborts on a per-record or
// per-recipient error; it counts, logs and carries on. Only a failed feed
// fetch or an expired context fails the cycle as a whole.

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kouranbot/outage-notifier/internal/domain"
	"github.com/kouranbot/outage-notifier/internal/feed"
	"github.com/kouranbot/outage-notifier/internal/observability"
)

// FeedSource abstracts the upstream outage feed.
type FeedSource interface {
	Fetch(ctx context.Context) ([]feed.Record, error)
}

// Monitor orchestrates one reconciliation cycle end to end.
type Monitor struct {
	Feed       FeedSource
	Normalizer *Normalizer
	Reconciler *Reconciler
	Matcher    *Matcher
	Dispatcher *Dispatcher
	Log        zerolog.Logger
	Metrics    *observability.Metrics
}

// CycleStats summarizes a single cycle for logging and tests.
type CycleStats struct {
	CycleID    string
	Records    int
	Candidates int

	New       int
	Changed   int
	Unchanged int
	Errors    int

	Sent        int
	Skipped     int
	Transient   int
	Deactivated int
}

// RunCycle executes one cycle and returns its statistics. The returned
// error is non-nil only when the cycle could not run at all.
func (m *Monitor) RunCycle(ctx context.Context) (CycleStats, error) {
	stats := CycleStats{CycleID: uuid.NewString()}

	tr := otel.Tracer("services/Monitor")
	ctx, span := tr.Start(ctx, "RunCycle",
		trace.WithAttributes(attribute.String("cycle.id", stats.CycleID)),
	)
	defer span.End()

	log := m.Log.With().Str("cycle_id", stats.CycleID).Logger()
	start := time.Now()

	m.Metrics.CyclesTotal.Inc()
	m.Metrics.CycleRunning.Set(1)
	defer func() {
		m.Metrics.CycleRunning.Set(0)
		m.Metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	records, err := m.Feed.Fetch(ctx)
	if err != nil {
		m.Metrics.CycleFailures.Inc()
		log.Error().Err(err).Msg("feed fetch failed")
		return stats, err
	}
	stats.Records = len(records)
	m.Metrics.FeedRecords.Add(float64(len(records)))

	candidates := m.Normalizer.Normalize(ctx, records)
	stats.Candidates = len(candidates)

	for _, cand := range candidates {
		if ctx.Err() != nil {
			m.Metrics.CycleFailures.Inc()
			log.Warn().Int("processed", stats.New+stats.Changed+stats.Unchanged).
				Msg("cycle cut short")
			return stats, ctx.Err()
		}

		class, _, err := m.Reconciler.Reconcile(ctx, cand)
		if err != nil {
			stats.Errors++
			log.Error().Err(err).Str("outage_id", cand.ID).Msg("reconcile failed")
			continue
		}
		m.Metrics.OutagesByOutcome.WithLabelValues(class.String()).Inc()

		switch class {
		case domain.ClassNew:
			stats.New++
		case domain.ClassChanged:
			stats.Changed++
		default:
			stats.Unchanged++
		}

		// Dispatch runs every cycle regardless of classification. The
		// per-pair claim skips subscribers already alerted, which is also
		// what retries a pair whose send failed transiently last cycle.
		// A change to an already-alerted outage therefore does not
		// re-notify; updated details are served through the read API.
		m.notify(ctx, log, cand, &stats)
	}

	log.Info().
		Int("records", stats.Records).
		Int("new", stats.New).
		Int("changed", stats.Changed).
		Int("unchanged", stats.Unchanged).
		Int("sent", stats.Sent).
		Int("errors", stats.Errors).
		Dur("took", time.Since(start)).
		Msg("cycle complete")

	return stats, nil
}

func (m *Monitor) notify(ctx context.Context, log zerolog.Logger, cand domain.Candidate, stats *CycleStats) {
	users, err := m.Matcher.Match(ctx, cand.LocalityID)
	if err != nil {
		stats.Errors++
		log.Error().Err(err).Str("outage_id", cand.ID).Msg("subscriber match failed")
		return
	}
	if len(users) == 0 {
		return
	}

	res := m.Dispatcher.Dispatch(ctx, cand.ID, FormatOutage(cand), users)
	stats.Sent += res.Sent
	stats.Skipped += res.Skipped
	stats.Transient += res.Transient
	stats.Deactivated += res.Deactivated

	log.Info().
		Str("outage_id", cand.ID).
		Str("locality", cand.LocalityName).
		Int("recipients", len(users)).
		Int("sent", res.Sent).
		Msg("outage dispatched")
}
