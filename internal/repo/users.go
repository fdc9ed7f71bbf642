// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

// UpsertUser inserts a user row keyed by their external chat ID, updating the
// display name on conflict. Language and active flag are preserved for
// existing rows.
func UpsertUser(ctx context.Context, db *gorm.DB, chatID int64, username, language string) (*domain.User, error) {
	now := time.Now().UTC()
	u := domain.User{
		ChatID:    chatID,
		Username:  username,
		Language:  language,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.Assignments(map[string]any{"username": username, "updated_at": now}),
		}).
		Create(&u).Error
	if err != nil {
		return nil, err
	}
	return GetUserByChatID(ctx, db, chatID)
}

// GetUserByChatID fetches a user by external chat ID or returns ErrNotFound.
func GetUserByChatID(ctx context.Context, db *gorm.DB, chatID int64) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("chat_id = ?", chatID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// MarkUserInactive clears the active flag so the matcher excludes the user
// from all future candidate sets. Called on permanent delivery failure.
func MarkUserInactive(ctx context.Context, db *gorm.DB, userID int64) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
