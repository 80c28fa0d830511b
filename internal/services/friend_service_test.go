package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/domain"
	"github.com/canwegame/canwegame-api/internal/repo"
)

// ----- Fake friendship repo -----

type fakeFriendRepo struct {
	exists    bool
	existsErr error

	createdLow  uint
	createdHigh uint
	createErr   error

	deletedLow  uint
	deletedHigh uint
	deleteErr   error

	rows    []domain.Friendship
	rowsErr error

	clearedFor uint
	clearErr   error
}

func (r *fakeFriendRepo) CreateFriendship(ctx context.Context, db *gorm.DB, lowID, highID uint) (*domain.Friendship, error) {
	r.createdLow, r.createdHigh = lowID, highID
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &domain.Friendship{UserLowID: lowID, UserHighID: highID, EstablishedAt: time.Now().UTC()}, nil
}

func (r *fakeFriendRepo) FriendshipExists(ctx context.Context, db *gorm.DB, lowID, highID uint) (bool, error) {
	return r.exists, r.existsErr
}

func (r *fakeFriendRepo) DeleteFriendship(ctx context.Context, db *gorm.DB, lowID, highID uint) error {
	r.deletedLow, r.deletedHigh = lowID, highID
	return r.deleteErr
}

func (r *fakeFriendRepo) ListFriendships(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Friendship, error) {
	return r.rows, r.rowsErr
}

func (r *fakeFriendRepo) DeleteFriendshipsFor(ctx context.Context, db *gorm.DB, userID uint) error {
	r.clearedFor = userID
	return r.clearErr
}

func directoryRepo() *fakeUserRepo {
	bo := &domain.User{ID: 7, Username: "bo"}
	ari := &domain.User{ID: 3, Username: "ari"}
	return &fakeUserRepo{
		users:      map[uint]*domain.User{3: ari, 7: bo},
		byUsername: map[string]*domain.User{"ari": ari, "bo": bo},
	}
}

// ----- Tests -----

func TestAddFriend_ResolvesByIDAndUsername(t *testing.T) {
	ctx := context.Background()

	// By numeric id.
	fr := &fakeFriendRepo{}
	s := NewFriendService(nil, directoryRepo(), fr)
	friend, err := s.AddFriend(ctx, 3, "7")
	if err != nil || friend.Username != "bo" {
		t.Fatalf("add by id: friend=%+v err=%v", friend, err)
	}
	if fr.createdLow != 3 || fr.createdHigh != 7 {
		t.Fatalf("expected canonical insert (3,7), got (%d,%d)", fr.createdLow, fr.createdHigh)
	}

	// By username, initiated from the higher id: same canonical row.
	fr = &fakeFriendRepo{}
	s = NewFriendService(nil, directoryRepo(), fr)
	friend, err = s.AddFriend(ctx, 7, "ari")
	if err != nil || friend.Username != "ari" {
		t.Fatalf("add by username: friend=%+v err=%v", friend, err)
	}
	if fr.createdLow != 3 || fr.createdHigh != 7 {
		t.Fatalf("expected canonical insert (3,7), got (%d,%d)", fr.createdLow, fr.createdHigh)
	}
}

func TestAddFriend_UnknownSelfAndDuplicate(t *testing.T) {
	ctx := context.Background()

	s := NewFriendService(nil, directoryRepo(), &fakeFriendRepo{})
	if _, err := s.AddFriend(ctx, 3, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown identifier: expected ErrUserNotFound, got %v", err)
	}
	if _, err := s.AddFriend(ctx, 3, "ari"); !errors.Is(err, ErrSelfFriendship) {
		t.Fatalf("self: expected ErrSelfFriendship, got %v", err)
	}

	s = NewFriendService(nil, directoryRepo(), &fakeFriendRepo{exists: true})
	if _, err := s.AddFriend(ctx, 3, "bo"); !errors.Is(err, ErrFriendshipExists) {
		t.Fatalf("existing pair: expected ErrFriendshipExists, got %v", err)
	}

	// Pre-check says free but the composite PK wins the race.
	s = NewFriendService(nil, directoryRepo(), &fakeFriendRepo{createErr: repo.ErrDuplicate})
	if _, err := s.AddFriend(ctx, 3, "bo"); !errors.Is(err, ErrFriendshipExists) {
		t.Fatalf("race on insert: expected ErrFriendshipExists, got %v", err)
	}
}

func TestRemoveFriend_SymmetricAndMissing(t *testing.T) {
	ctx := context.Background()

	// Remove initiated by the member who did not add the pair.
	fr := &fakeFriendRepo{}
	s := NewFriendService(nil, directoryRepo(), fr)
	if err := s.RemoveFriend(ctx, 7, "ari"); err != nil {
		t.Fatalf("RemoveFriend: %v", err)
	}
	if fr.deletedLow != 3 || fr.deletedHigh != 7 {
		t.Fatalf("expected canonical delete (3,7), got (%d,%d)", fr.deletedLow, fr.deletedHigh)
	}

	s = NewFriendService(nil, directoryRepo(), &fakeFriendRepo{deleteErr: gorm.ErrRecordNotFound})
	if err := s.RemoveFriend(ctx, 3, "bo"); !errors.Is(err, ErrFriendshipNotFound) {
		t.Fatalf("missing pair: expected ErrFriendshipNotFound, got %v", err)
	}
}

func TestListFriends_ReturnsOtherSideOfEachRow(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	fr := &fakeFriendRepo{rows: []domain.Friendship{
		{UserLowID: 3, UserHighID: 7, EstablishedAt: t1}, // user 3 is low
		{UserLowID: 1, UserHighID: 3, EstablishedAt: t2}, // user 3 is high
	}}
	users := directoryRepo()
	users.users[1] = &domain.User{ID: 1, Username: "cleo"}

	s := NewFriendService(nil, users, fr)
	got, err := s.ListFriends(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(got) != 2 || got[0].Username != "bo" || got[1].Username != "cleo" {
		t.Fatalf("unexpected friends: %+v", got)
	}
}

func TestResolve_NumericUsernameFallsBack(t *testing.T) {
	// "99" is not a user id here, but it is somebody's username.
	u := &domain.User{ID: 5, Username: "99"}
	users := &fakeUserRepo{
		users:      map[uint]*domain.User{5: u},
		byUsername: map[string]*domain.User{"99": u},
	}
	s := NewFriendService(nil, users, &fakeFriendRepo{})

	got, err := s.resolve(context.Background(), "99")
	if err != nil || got.ID != 5 {
		t.Fatalf("expected username fallback to user 5, got %+v err=%v", got, err)
	}
}
