// Package services – ScheduleService
//
// This file implements the ScheduleService, which manages gaming-availability
// windows. Mutations are ownership-guarded end to end: update and delete are
// executed with a combined id+owner filter at the repository, so a schedule
// owned by someone else produces the same ErrScheduleNotFound as a schedule
// that does not exist. Day tokens are validated against a fixed set and
// stored normalized upper-case; start/end times are "HH:MM" 24-hour strings.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/domain"
)

// ScheduleRepo defines the repository contract required by ScheduleService.
type ScheduleRepo interface {
	// CreateSchedule inserts a new schedule row.
	CreateSchedule(ctx context.Context, db *gorm.DB, s *domain.Schedule) error

	// ListSchedules returns all schedules owned by userID.
	ListSchedules(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Schedule, error)

	// GetSchedule fetches a schedule by id scoped to its owner.
	GetSchedule(ctx context.Context, db *gorm.DB, id, userID uint) (*domain.Schedule, error)

	// UpdateSchedule replaces the mutable fields of an owned schedule.
	UpdateSchedule(ctx context.Context, db *gorm.DB, s *domain.Schedule) error

	// DeleteSchedule removes a schedule by id scoped to its owner.
	DeleteSchedule(ctx context.Context, db *gorm.DB, id, userID uint) error
}

// ScheduleInput carries the caller-supplied fields for creating or updating
// a schedule. Days are accepted case-insensitively.
type ScheduleInput struct {
	GameTitle   string
	DaysOfWeek  []string
	StartTime   string
	EndTime     string
	IsWeekly    bool
	Description *string
}

// ScheduleService provides schedule CRUD with ownership enforcement.
type ScheduleService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the schedule repository used by this service.
	Repo ScheduleRepo
	// Users is the account repository, used to resolve owners and to verify
	// that cross-user listing targets exist.
	Users UserRepo
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(db *gorm.DB, r ScheduleRepo, users UserRepo) *ScheduleService {
	return &ScheduleService{DB: db, Repo: r, Users: users}
}

// validDayTokens is the recognized day vocabulary, already upper-case.
var validDayTokens = map[string]struct{}{
	"M": {}, "T": {}, "W": {}, "THU": {}, "F": {}, "SAT": {}, "SUN": {},
}

// dayOrder fixes the output ordering of a normalized day set.
var dayOrder = []string{"M", "T", "W", "THU", "F", "SAT", "SUN"}

// Create validates input and inserts a schedule owned by userID. The owner's
// username is captured onto the row at write time.
func (s *ScheduleService) Create(ctx context.Context, userID uint, in ScheduleInput) (*domain.Schedule, error) {
	days, err := validateInput(&in)
	if err != nil {
		return nil, err
	}

	owner, err := s.Users.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	sched := &domain.Schedule{
		UserID:      userID,
		Username:    owner.Username,
		GameTitle:   in.GameTitle,
		DaysOfWeek:  days,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsWeekly:    in.IsWeekly,
		Description: in.Description,
	}
	if err := s.Repo.CreateSchedule(ctx, s.DB, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// ListMine returns the caller's own schedules.
func (s *ScheduleService) ListMine(ctx context.Context, userID uint) ([]domain.Schedule, error) {
	return s.Repo.ListSchedules(ctx, s.DB, userID)
}

// ListForUser returns another user's schedules. Any authenticated caller may
// read them; ErrUserNotFound is returned only when the target account itself
// does not exist.
func (s *ScheduleService) ListForUser(ctx context.Context, targetID uint) ([]domain.Schedule, error) {
	if _, err := s.Users.GetUser(ctx, s.DB, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Repo.ListSchedules(ctx, s.DB, targetID)
}

// Get fetches one of the caller's schedules by id.
func (s *ScheduleService) Get(ctx context.Context, userID, id uint) (*domain.Schedule, error) {
	sched, err := s.Repo.GetSchedule(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return sched, nil
}

// Update validates input and replaces the mutable fields of the caller's
// schedule. A schedule that is missing or owned by someone else returns
// ErrScheduleNotFound.
func (s *ScheduleService) Update(ctx context.Context, userID, id uint, in ScheduleInput) (*domain.Schedule, error) {
	days, err := validateInput(&in)
	if err != nil {
		return nil, err
	}

	owner, err := s.Users.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	sched := &domain.Schedule{
		ID:          id,
		UserID:      userID,
		Username:    owner.Username,
		GameTitle:   in.GameTitle,
		DaysOfWeek:  days,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsWeekly:    in.IsWeekly,
		Description: in.Description,
	}
	if err := s.Repo.UpdateSchedule(ctx, s.DB, sched); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Delete removes the caller's schedule by id. A schedule that is missing or
// owned by someone else returns ErrScheduleNotFound.
func (s *ScheduleService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.Repo.DeleteSchedule(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	return nil
}

// validateInput checks title, days, and times, returning the normalized day
// set. The input's title is trimmed in place.
func validateInput(in *ScheduleInput) ([]string, error) {
	in.GameTitle = strings.TrimSpace(in.GameTitle)
	if in.GameTitle == "" {
		return nil, ErrEmptyGameTitle
	}
	days, err := NormalizeDays(in.DaysOfWeek)
	if err != nil {
		return nil, err
	}
	if !validClockTime(in.StartTime) || !validClockTime(in.EndTime) {
		return nil, ErrInvalidTime
	}
	return days, nil
}

// NormalizeDays upper-cases, de-duplicates, and orders a day-token set.
// An empty set or an unrecognized token returns ErrInvalidDays.
func NormalizeDays(days []string) ([]string, error) {
	if len(days) == 0 {
		return nil, ErrInvalidDays
	}
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		tok := strings.ToUpper(strings.TrimSpace(d))
		if _, ok := validDayTokens[tok]; !ok {
			return nil, ErrInvalidDays
		}
		seen[tok] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for _, tok := range dayOrder {
		if _, ok := seen[tok]; ok {
			out = append(out, tok)
		}
	}
	return out, nil
}

// validClockTime reports whether s is a zero-padded "HH:MM" 24-hour time.
func validClockTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	return hh <= 23 && mm <= 59
}
