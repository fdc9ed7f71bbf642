package repo

import (
	"context"
	"errors"
	"testing"
)

func TestUpsertUser_CreatesActive(t *testing.T) {
	db := newTestDB(t)
	u, err := UpsertUser(context.Background(), db, 1234, "alice", "en")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.ChatID != 1234 || u.Username != "alice" || u.Language != "en" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.Active {
		t.Fatal("new user must be active")
	}
}

func TestUpsertUser_UpdatesNamePreservesFlags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := UpsertUser(ctx, db, 1234, "alice", "en")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := MarkUserInactive(ctx, db, first.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Same chat ID comes back with a new display name and another language.
	second, err := UpsertUser(ctx, db, 1234, "alice2", "fr")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert must not mint a new row: %d vs %d", second.ID, first.ID)
	}
	if second.Username != "alice2" {
		t.Fatalf("username not updated: %q", second.Username)
	}
	if second.Language != "en" {
		t.Fatalf("language must be preserved on conflict, got %q", second.Language)
	}
	if second.Active {
		t.Fatal("active flag must be preserved on conflict")
	}
}

func TestGetUserByChatID_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := GetUserByChatID(context.Background(), db, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMarkUserInactive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, 100)

	if err := MarkUserInactive(ctx, db, u.ID); err != nil {
		t.Fatalf("mark inactive: %v", err)
	}
	got, err := GetUserByChatID(ctx, db, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Active {
		t.Fatal("user still active")
	}

	if err := MarkUserInactive(ctx, db, 424242); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown user, got %v", err)
	}
}
