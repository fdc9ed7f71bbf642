// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Subscription model.
//
// Subscriptions are written by the external subscription-management surface;
// the reconciliation engine only reads them (ListActiveSubscribers). The
// write helpers exist for that surface and for test fixtures.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

// CreateSubscription registers (user, locality). Returns ErrDuplicate when
// the pair already exists.
func CreateSubscription(ctx context.Context, db *gorm.DB, userID, localityID int64) error {
	sub := domain.Subscription{
		UserID:     userID,
		LocalityID: localityID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&sub).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeleteSubscription removes (user, locality). Returns ErrNotFound when the
// pair does not exist. Prior notification history is untouched.
func DeleteSubscription(ctx context.Context, db *gorm.DB, userID, localityID int64) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND locality_id = ?", userID, localityID).
		Delete(&domain.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveSubscribers returns the currently active users subscribed to the
// given locality. This is the matcher query: a single join scoped to one
// locality, so large subscriber sets do not drag unrelated rows along.
func ListActiveSubscribers(ctx context.Context, db *gorm.DB, localityID int64) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.locality_id = ? AND users.active = ?", localityID, true).
		Order("users.id ASC").
		Find(&out).Error
	return out, err
}

// ListUserSubscriptions returns the localities a user is subscribed to,
// ordered by name. Serves the external subscription-management surface.
func ListUserSubscriptions(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Locality, error) {
	var out []domain.Locality
	err := db.WithContext(ctx).
		Model(&domain.Locality{}).
		Joins("JOIN subscriptions ON subscriptions.locality_id = localities.id").
		Where("subscriptions.user_id = ?", userID).
		Order("localities.name ASC").
		Find(&out).Error
	return out, err
}
