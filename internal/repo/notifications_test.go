package repo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestClaimNotification_FirstClaimWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, 100)
	o := seedOutage(t, db, "out-1", seedGeo(t, db, "moka", "Moka"))

	if err := ClaimNotification(ctx, db, u.ID, o.ID, time.Now()); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	err := ClaimNotification(ctx, db, u.ID, o.ID, time.Now())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second claim: want ErrDuplicate, got %v", err)
	}

	n, err := CountNotifications(ctx, db, o.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("want exactly 1 delivery record, got %d", n)
	}
}

func TestClaimNotification_DistinctPairsIndependent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	loc := seedGeo(t, db, "moka", "Moka")
	u1 := seedUser(t, db, 100)
	u2 := seedUser(t, db, 200)
	o1 := seedOutage(t, db, "out-1", loc)
	o2 := seedOutage(t, db, "out-2", loc)

	for _, pair := range []struct {
		userID   int64
		outageID string
	}{
		{u1.ID, o1.ID}, {u1.ID, o2.ID}, {u2.ID, o1.ID},
	} {
		if err := ClaimNotification(ctx, db, pair.userID, pair.outageID, time.Now()); err != nil {
			t.Fatalf("claim (%d,%s): %v", pair.userID, pair.outageID, err)
		}
	}

	if n, _ := CountNotifications(ctx, db, o1.ID); n != 2 {
		t.Fatalf("out-1 deliveries: want 2, got %d", n)
	}
	if n, _ := CountNotifications(ctx, db, o2.ID); n != 1 {
		t.Fatalf("out-2 deliveries: want 1, got %d", n)
	}
}

func TestClaimNotification_RolledBackClaimAllowsRetry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, 100)
	o := seedOutage(t, db, "out-1", seedGeo(t, db, "moka", "Moka"))

	abort := errors.New("delivery failed")
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ClaimNotification(ctx, tx, u.ID, o.ID, time.Now()); err != nil {
			t.Fatalf("claim: %v", err)
		}
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("transaction: want rollback error, got %v", err)
	}

	has, err := HasNotification(ctx, db, u.ID, o.ID)
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if has {
		t.Fatal("rolled-back claim must not be visible")
	}

	// The pair is claimable again, as a later cycle would do.
	if err := ClaimNotification(ctx, db, u.ID, o.ID, time.Now()); err != nil {
		t.Fatalf("re-claim after rollback: %v", err)
	}
}

func TestClaimNotification_ConcurrentSamePair(t *testing.T) {
	db := newFileDB(t)
	ctx := context.Background()
	u := seedUser(t, db, 100)
	o := seedOutage(t, db, "out-1", seedGeo(t, db, "moka", "Moka"))

	const claimers = 8
	var wg sync.WaitGroup
	var wins, dups int32
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ClaimNotification(ctx, db, u.ID, o.ID, time.Now())
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, ErrDuplicate):
				atomic.AddInt32(&dups, 1)
			default:
				t.Errorf("claim: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("want exactly 1 winning claim, got %d", wins)
	}
	if dups != claimers-1 {
		t.Fatalf("want %d duplicate rejections, got %d", claimers-1, dups)
	}
	n, err := CountNotifications(ctx, db, o.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("want exactly 1 delivery record, got %d", n)
	}
}

func TestHasNotification(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, 100)
	o := seedOutage(t, db, "out-1", seedGeo(t, db, "moka", "Moka"))

	has, err := HasNotification(ctx, db, u.ID, o.ID)
	if err != nil || has {
		t.Fatalf("want (false, nil) before claim, got (%v, %v)", has, err)
	}

	if err := ClaimNotification(ctx, db, u.ID, o.ID, time.Now()); err != nil {
		t.Fatalf("claim: %v", err)
	}

	has, err = HasNotification(ctx, db, u.ID, o.ID)
	if err != nil || !has {
		t.Fatalf("want (true, nil) after claim, got (%v, %v)", has, err)
	}
}
