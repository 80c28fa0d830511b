// Package services – UserService
//
// This file implements the UserService, which exposes the user directory
// (paginated listing and lookup by id) and account deletion. Deletion removes
// the identity together with its friendship rows in one transaction; the
// account's schedules are removed by the foreign-key cascade.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/domain"
)

// FriendshipRepo defines the repository contract for friendship persistence,
// shared by UserService (cleanup on account deletion) and FriendService.
type FriendshipRepo interface {
	// CreateFriendship inserts a canonical (low, high) pair; an existing
	// pair maps to repo.ErrDuplicate.
	CreateFriendship(ctx context.Context, db *gorm.DB, lowID, highID uint) (*domain.Friendship, error)

	// FriendshipExists reports whether the canonical pair is present.
	FriendshipExists(ctx context.Context, db *gorm.DB, lowID, highID uint) (bool, error)

	// DeleteFriendship removes the canonical pair; a missing pair maps to
	// repo.ErrNotFound.
	DeleteFriendship(ctx context.Context, db *gorm.DB, lowID, highID uint) error

	// ListFriendships returns every row in which userID appears as either
	// member, ordered by establishment time.
	ListFriendships(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Friendship, error)

	// DeleteFriendshipsFor removes every row involving userID.
	DeleteFriendshipsFor(ctx context.Context, db *gorm.DB, userID uint) error
}

// UserService provides directory operations over registered accounts.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Users is the account repository.
	Users UserRepo
	// Friends is the friendship repository, used for deletion cleanup.
	Friends FriendshipRepo
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, users UserRepo, friends FriendshipRepo) *UserService {
	return &UserService{DB: db, Users: users, Friends: friends}
}

// ListPage returns a page of users ordered by id, with the total count.
// Invalid page/pageSize values fall back to defaults.
func (s *UserService) ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Users.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}

	items, err := s.Users.ListUsersPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Get fetches a user by id, mapping a missing row to ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.Users.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// DeleteAccount removes the account and its friendship rows atomically.
// Schedules owned by the account are removed by the database cascade.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Friends.DeleteFriendshipsFor(ctx, tx, userID); err != nil {
			return err
		}
		return s.Users.DeleteUser(ctx, tx, userID)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
