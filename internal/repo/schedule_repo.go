// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Schedule
// model.
//
// Ownership rule: update and delete operations filter by BOTH the schedule
// id and the owner's user id in a single statement. There is never a
// fetch-then-check window in which a non-owner could learn that a row
// exists; "exists but not yours" and "does not exist" are the same
// ErrNotFound outcome.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/domain"
)

// CreateSchedule inserts a new Schedule row owned by userID. The owner's
// username is denormalized onto the row at creation time.
func CreateSchedule(ctx context.Context, db *gorm.DB, s *domain.Schedule) error {
	s.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(s).Error
}

// ListSchedules returns all schedules belonging to userID, ordered by
// creation time descending (most recent first). It returns an empty slice
// if the user has no schedules.
func ListSchedules(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Schedule, error) {
	var out []domain.Schedule
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetSchedule fetches a single schedule by its id and owner in one combined
// lookup. If the record does not exist or is owned by someone else, it
// returns ErrNotFound.
func GetSchedule(ctx context.Context, db *gorm.DB, id, userID uint) (*domain.Schedule, error) {
	var s domain.Schedule
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSchedule replaces the mutable fields of a schedule identified by
// s.ID and owned by s.UserID. If no rows are affected (schedule missing or
// not owned by s.UserID), it returns ErrNotFound.
func UpdateSchedule(ctx context.Context, db *gorm.DB, s *domain.Schedule) error {
	// Struct-based Updates so the JSON serializer on DaysOfWeek applies; the
	// explicit Select keeps zero values (IsWeekly=false, nil Description)
	// from being skipped.
	res := db.WithContext(ctx).
		Model(&domain.Schedule{}).
		Where("id = ? AND user_id = ?", s.ID, s.UserID).
		Select("Username", "GameTitle", "DaysOfWeek", "StartTime", "EndTime", "IsWeekly", "Description", "UpdatedAt").
		Updates(domain.Schedule{
			Username:    s.Username,
			GameTitle:   s.GameTitle,
			DaysOfWeek:  s.DaysOfWeek,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			IsWeekly:    s.IsWeekly,
			Description: s.Description,
			UpdatedAt:   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteSchedule removes a schedule by id, scoped to its owner. If no rows
// are affected, it returns ErrNotFound.
func DeleteSchedule(ctx context.Context, db *gorm.DB, id, userID uint) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Schedule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
