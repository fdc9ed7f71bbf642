// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the atomic claim primitives for the
// NotificationSent model used to implement the at-most-once delivery
// guarantee.
//
// Protocol (claim then send, one transaction):
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//	    if err := repo.ClaimNotification(ctx, tx, userID, outageID, now); err != nil {
//	        return err // ErrDuplicate: already delivered
//	    }
//	    return send(...)
//	})
//
// The claim commits only with a successful send; a failed send or a crash
// mid-delivery rolls it back, so a later cycle retries the pair.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

// ClaimNotification reserves the (user, outage) pair exactly once by
// inserting a NotificationSent row. A unique-constraint rejection is
// returned as ErrDuplicate: the pair was already claimed. Correctness rests
// on the composite unique index, never on caller-side locking.
func ClaimNotification(ctx context.Context, db *gorm.DB, userID int64, outageID string, sentAt time.Time) error {
	rec := domain.NotificationSent{
		UserID:   userID,
		OutageID: outageID,
		SentAt:   sentAt.UTC(),
	}
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// HasNotification reports whether a delivery record exists for (user, outage).
func HasNotification(ctx context.Context, db *gorm.DB, userID int64, outageID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.NotificationSent{}).
		Where("user_id = ? AND outage_id = ?", userID, outageID).
		Count(&n).Error
	return n > 0, err
}

// CountNotifications returns the total number of delivery records for an
// outage.
func CountNotifications(ctx context.Context, db *gorm.DB, outageID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.NotificationSent{}).
		Where("outage_id = ?", outageID).
		Count(&n).Error
	return n, err
}
