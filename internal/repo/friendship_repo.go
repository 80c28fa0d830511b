// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Friendship
// model.
//
// Friendships are stored by canonical pair only: callers must pass ids
// already normalized with domain.CanonicalPair. The composite primary key on
// (user_low_id, user_high_id) is the storage-level uniqueness guarantee —
// the app-level existence check in the service layer is only a fast path,
// and the race where two requests pass it concurrently surfaces here as
// ErrDuplicate.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/domain"
)

// CreateFriendship inserts a friendship row for the canonical pair
// (lowID, highID) with EstablishedAt set to UTC now. A pair that already
// exists returns ErrDuplicate.
func CreateFriendship(ctx context.Context, db *gorm.DB, lowID, highID uint) (*domain.Friendship, error) {
	f := &domain.Friendship{
		UserLowID:     lowID,
		UserHighID:    highID,
		EstablishedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return f, nil
}

// FriendshipExists reports whether a row for the canonical pair exists.
func FriendshipExists(ctx context.Context, db *gorm.DB, lowID, highID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Friendship{}).
		Where("user_low_id = ? AND user_high_id = ?", lowID, highID).
		Count(&n).Error
	return n > 0, err
}

// DeleteFriendship removes the row for the canonical pair. Returns
// ErrNotFound when no such pair exists.
func DeleteFriendship(ctx context.Context, db *gorm.DB, lowID, highID uint) error {
	res := db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", lowID, highID).
		Delete(&domain.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFriendships returns every friendship row in which userID appears as
// either member, ordered by establishment time ascending. The caller picks
// the opposite member out of each row; the symmetric view is assembled at
// the service layer.
func ListFriendships(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Friendship, error) {
	var out []domain.Friendship
	err := db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("established_at asc").
		Find(&out).Error
	return out, err
}

// DeleteFriendshipsFor removes every friendship row referencing userID.
// Used when an account is deleted; deleting zero rows is not an error.
func DeleteFriendshipsFor(ctx context.Context, db *gorm.DB, userID uint) error {
	return db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Delete(&domain.Friendship{}).Error
}
