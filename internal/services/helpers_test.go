package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kouranbot/outage-notifier/internal/domain"
	"github.com/kouranbot/outage-notifier/internal/feed"
	"github.com/kouranbot/outage-notifier/internal/gateway"
	"github.com/kouranbot/outage-notifier/internal/observability"
	"github.com/kouranbot/outage-notifier/internal/repo"
)

// newServiceDB opens a file-backed database per test. Dispatch workers hold
// write transactions concurrently, which the shared in-memory DSN rejects
// outright instead of waiting on the busy timeout.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "state.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeGateway counts sends and fails on demand: failAlways errors every
// attempt for a chat, failTimes errors the first N attempts then succeeds.
type fakeGateway struct {
	mu         sync.Mutex
	sent       []sentMessage
	failAlways map[int64]error
	failTimes  map[int64]int
	transient  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		failAlways: make(map[int64]error),
		failTimes:  make(map[int64]int),
		transient:  gateway.Transient(fmt.Errorf("gateway unavailable")),
	}
}

func (g *fakeGateway) Send(_ context.Context, chatID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failAlways[chatID]; ok {
		return err
	}
	if left, ok := g.failTimes[chatID]; ok && left > 0 {
		g.failTimes[chatID] = left - 1
		return g.transient
	}
	g.sent = append(g.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (g *fakeGateway) sentTo(chatID int64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, m := range g.sent {
		if m.ChatID == chatID {
			n++
		}
	}
	return n
}

func (g *fakeGateway) totalSent() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

// fakeFeed returns a fixed batch, swappable between cycles.
type fakeFeed struct {
	mu      sync.Mutex
	records []feed.Record
	err     error
}

func (f *fakeFeed) Fetch(context.Context) ([]feed.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]feed.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeFeed) set(records []feed.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records, f.err = records, err
}

func newTestDispatcher(db *gorm.DB, gw gateway.Gateway) *Dispatcher {
	return &Dispatcher{
		DB:            db,
		Gateway:       gw,
		Log:           zerolog.Nop(),
		Metrics:       observability.NewMetricsForTesting(),
		Workers:       4,
		Limiter:       rate.NewLimiter(rate.Inf, 1),
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	}
}

func newTestMonitor(db *gorm.DB, f FeedSource, gw gateway.Gateway) *Monitor {
	metrics := observability.NewMetricsForTesting()
	d := newTestDispatcher(db, gw)
	d.Metrics = metrics
	return &Monitor{
		Feed:       f,
		Normalizer: &Normalizer{DB: db, Log: zerolog.Nop(), Metrics: metrics},
		Reconciler: &Reconciler{DB: db},
		Matcher:    &Matcher{DB: db},
		Dispatcher: d,
		Log:        zerolog.Nop(),
		Metrics:    metrics,
	}
}

// subscribeUser creates an active user subscribed to the locality.
func subscribeUser(t *testing.T, db *gorm.DB, chatID int64, localityID int64) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := repo.UpsertUser(ctx, db, chatID, fmt.Sprintf("user%d", chatID), "fr")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := repo.CreateSubscription(ctx, db, u.ID, localityID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return u
}

// candidateInDB creates the Quatre Bornes geography and returns a candidate
// resolved against it.
func candidateInDB(t *testing.T, db *gorm.DB, id string) domain.Candidate {
	t.Helper()
	ctx := context.Background()
	d, err := repo.GetOrCreateDistrict(ctx, db, "plaines_wilhems")
	if err != nil {
		t.Fatalf("seed district: %v", err)
	}
	loc, err := repo.GetOrCreateLocality(ctx, db, "Quatre Bornes", d.ID)
	if err != nil {
		t.Fatalf("seed locality: %v", err)
	}
	from := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	return domain.Candidate{
		ID:              id,
		LocalityID:      loc.ID,
		DistrictID:      loc.DistrictID,
		LocalityName:    "Quatre Bornes",
		DistrictName:    "plaines_wilhems",
		Streets:         "St Jean Road",
		DateDescription: "Tuesday 26 August",
		FromTime:        from,
		ToTime:          from.Add(3 * time.Hour),
	}
}

func quatreBornesRecord(id string) feed.Record {
	return feed.Record{
		ID:       id,
		Locality: "Quatre Bornes",
		District: "plaines_wilhems",
		Streets:  "St Jean Road",
		Date:     "Tuesday 26 August",
		From:     time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		To:       time.Now().UTC().Add(27 * time.Hour).Format(time.RFC3339),
	}
}
