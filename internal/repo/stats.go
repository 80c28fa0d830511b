// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/domain"
)

// SchedulesStats returns aggregate metadata for a user's schedules: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
//
// It executes two lightweight queries against the schedules table scoped to
// the provided userID. When the user has no schedules, the returned count is
// 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total schedules for userID
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func SchedulesStats(ctx context.Context, db *gorm.DB, userID uint) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Schedule{}).Where("user_id = ?", userID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// FriendshipsStats returns aggregate metadata for a user's friendships: the
// total number of rows and the maximum EstablishedAt timestamp among those
// rows. When the user has no friendships, the returned count is 0 and
// maxEstablishedAt is nil.
func FriendshipsStats(ctx context.Context, db *gorm.DB, userID uint) (count int64, maxEstablishedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Friendship{}).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		EstablishedAt time.Time
	}
	if err = q.Select("established_at").Order("established_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.EstablishedAt, nil
}
