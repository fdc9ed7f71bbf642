// Package services – Dispatcher
//
// The dispatcher delivers one message per (user, outage) pair at most once.
// Each worker claims the pair by inserting a notification row; the unique
// index makes the insert an atomic claim, so concurrent cycles and workers
// cannot double-send. The claim and the gateway send share one transaction:
// the row only becomes durable once the send succeeded, so a failed send or
// a crash mid-delivery rolls the claim back and a later cycle retries the
// pair from scratch.

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/domain"
	"github.com/kouranbot/outage-notifier/internal/gateway"
	"github.com/kouranbot/outage-notifier/internal/observability"
	"github.com/kouranbot/outage-notifier/internal/repo"
)

// Dispatcher fans a formatted message out to subscribers through the gateway.
type Dispatcher struct {
	DB      *gorm.DB
	Gateway gateway.Gateway
	Log     zerolog.Logger
	Metrics *observability.Metrics

	Workers       int
	Limiter       *rate.Limiter
	MaxRetries    int
	RetryInterval time.Duration
}

// DispatchResult counts per-recipient outcomes for one outage.
type DispatchResult struct {
	Sent        int
	Skipped     int // already delivered in an earlier cycle
	Transient   int // claim rolled back, retried next cycle
	Deactivated int // permanent gateway rejection
}

// Dispatch sends text to every user, at most once per (user, outage).
// Recipient failures are counted, logged and absorbed; only a context
// cancellation aborts the fan-out early.
func (d *Dispatcher) Dispatch(ctx context.Context, outageID, text string, users []domain.User) DispatchResult {
	tr := otel.Tracer("services/Dispatcher")
	ctx, span := tr.Start(ctx, "Dispatch",
		trace.WithAttributes(
			attribute.String("outage.id", outageID),
			attribute.Int("recipients", len(users)),
		),
	)
	defer span.End()

	workers := d.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan domain.User)
	var mu sync.Mutex
	var res DispatchResult

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				outcome := d.deliver(ctx, outageID, text, u)
				mu.Lock()
				switch outcome {
				case deliverSent:
					res.Sent++
				case deliverSkipped:
					res.Skipped++
				case deliverTransient:
					res.Transient++
				case deliverDeactivated:
					res.Deactivated++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, u := range users {
		select {
		case jobs <- u:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	span.SetAttributes(
		attribute.Int("sent", res.Sent),
		attribute.Int("skipped", res.Skipped),
	)
	return res
}

type deliverOutcome int

const (
	deliverSent deliverOutcome = iota
	deliverSkipped
	deliverTransient
	deliverDeactivated
	deliverAborted
)

func (d *Dispatcher) deliver(ctx context.Context, outageID, text string, u domain.User) deliverOutcome {
	log := d.Log.With().
		Int64("user_id", u.ID).
		Str("outage_id", outageID).
		Logger()

	// Claim before sending, in one transaction with the send. Losing the
	// claim race means another worker or an earlier cycle already owns the
	// pair. The claim commits only after the gateway accepted the message,
	// so a crash between claim and send leaves no stored row and the pair
	// is retried on the next cycle. Stored rows only ever describe
	// messages that actually went out.
	claimed := false
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.ClaimNotification(ctx, tx, u.ID, outageID, time.Now().UTC()); err != nil {
			return err
		}
		claimed = true
		return d.send(ctx, u.ChatID, text)
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return deliverSkipped
	}
	if err == nil {
		d.Metrics.NotificationsSent.Inc()
		log.Debug().Msg("notification delivered")
		return deliverSent
	}
	if !claimed {
		log.Error().Err(err).Msg("notification claim failed")
		d.Metrics.NotificationsFailed.WithLabelValues("transient").Inc()
		return deliverTransient
	}

	if ctx.Err() != nil {
		return deliverAborted
	}

	if gateway.IsPermanent(err) {
		log.Warn().Err(err).Msg("recipient unreachable, deactivating")
		d.Metrics.NotificationsFailed.WithLabelValues("permanent").Inc()
		if inErr := repo.MarkUserInactive(ctx, d.DB, u.ID); inErr != nil {
			log.Error().Err(inErr).Msg("user deactivation failed")
		} else {
			d.Metrics.UsersDeactivated.Inc()
		}
		return deliverDeactivated
	}

	log.Warn().Err(err).Msg("send failed, will retry next cycle")
	d.Metrics.NotificationsFailed.WithLabelValues("transient").Inc()
	return deliverTransient
}

// send pushes one message through the gateway with bounded retries on
// transient errors. Permanent errors short-circuit immediately.
func (d *Dispatcher) send(ctx context.Context, chatID int64, text string) error {
	op := func() error {
		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		start := time.Now()
		err := d.Gateway.Send(ctx, chatID, text)
		if err == nil {
			d.Metrics.SendDuration.Observe(time.Since(start).Seconds())
			return nil
		}
		if gateway.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.RetryInterval
	return backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(d.MaxRetries)), ctx))
}
