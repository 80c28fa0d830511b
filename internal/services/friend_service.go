// Package services – FriendService
//
// This file implements the FriendService, which manages symmetric
// friendships. Friend identifiers in requests resolve first as a numeric user
// id and otherwise as an exact username. Every read and write path funnels
// through domain.CanonicalPair, so "A befriends B" and "B befriends A" hit
// the same storage row and either member can remove it.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/domain"
	"github.com/canwegame/canwegame-api/internal/repo"
)

// FriendService provides add/remove/list operations over friendships.
type FriendService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Users is the account repository, used for identifier resolution.
	Users UserRepo
	// Friends is the friendship repository.
	Friends FriendshipRepo
}

// NewFriendService constructs a FriendService.
func NewFriendService(db *gorm.DB, users UserRepo, friends FriendshipRepo) *FriendService {
	return &FriendService{DB: db, Users: users, Friends: friends}
}

// AddFriend creates a friendship between requesterID and the user named by
// identifier. An unknown identifier returns ErrUserNotFound, self-befriending
// returns ErrSelfFriendship, and an existing pair returns ErrFriendshipExists
// even when the composite primary key wins a concurrent race.
func (s *FriendService) AddFriend(ctx context.Context, requesterID uint, identifier string) (*domain.User, error) {
	friend, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if friend.ID == requesterID {
		return nil, ErrSelfFriendship
	}

	low, high := domain.CanonicalPair(requesterID, friend.ID)
	if exists, err := s.Friends.FriendshipExists(ctx, s.DB, low, high); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrFriendshipExists
	}

	if _, err := s.Friends.CreateFriendship(ctx, s.DB, low, high); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrFriendshipExists
		}
		return nil, err
	}
	return friend, nil
}

// RemoveFriend deletes the friendship between requesterID and the user named
// by identifier. Removal is symmetric: either member may remove the pair no
// matter who added it. A missing pair returns ErrFriendshipNotFound.
func (s *FriendService) RemoveFriend(ctx context.Context, requesterID uint, identifier string) error {
	friend, err := s.resolve(ctx, identifier)
	if err != nil {
		return err
	}
	if friend.ID == requesterID {
		return ErrSelfFriendship
	}

	low, high := domain.CanonicalPair(requesterID, friend.ID)
	if err := s.Friends.DeleteFriendship(ctx, s.DB, low, high); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendshipNotFound
		}
		return err
	}
	return nil
}

// ListFriends returns the users on the other side of every friendship row in
// which userID appears, in establishment order.
func (s *FriendService) ListFriends(ctx context.Context, userID uint) ([]domain.User, error) {
	rows, err := s.Friends.ListFriendships(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(rows))
	for _, f := range rows {
		otherID := f.UserLowID
		if otherID == userID {
			otherID = f.UserHighID
		}
		u, err := s.Users.GetUser(ctx, s.DB, otherID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Row survived its member; skip rather than fail the listing.
				continue
			}
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

// resolve maps an identifier to a user: all-digits identifiers resolve by id,
// everything else by exact username. Missing users map to ErrUserNotFound.
func (s *FriendService) resolve(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrUserNotFound
	}

	if id, convErr := strconv.ParseUint(identifier, 10, 32); convErr == nil {
		u, err := s.Users.GetUser(ctx, s.DB, uint(id))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Fall through: a numeric username is still a legal handle.
	}

	u, err := s.Users.GetUserByUsername(ctx, s.DB, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
