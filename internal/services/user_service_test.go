package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/canwegame/canwegame-api/internal/domain"
)

// newSvcDB opens a throwaway in-memory database for tests that exercise
// transaction plumbing.
func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestUserListPage_DefaultsAndOffset(t *testing.T) {
	r := &fakeUserRepo{
		countTotal: 50,
		pageItems:  []domain.User{{ID: 21, Username: "u21"}},
	}
	s := NewUserService(nil, r, &fakeFriendRepo{})

	items, total, err := s.ListPage(context.Background(), 0, -5)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 50 || len(items) != 1 {
		t.Fatalf("unexpected page: total=%d items=%v", total, items)
	}
	// Invalid page/pageSize fall back to 1/20.
	if r.pageOffset != 0 || r.pageLimit != 20 {
		t.Fatalf("expected offset=0 limit=20, got offset=%d limit=%d", r.pageOffset, r.pageLimit)
	}

	if _, _, err := s.ListPage(context.Background(), 3, 10); err != nil {
		t.Fatalf("ListPage page 3: %v", err)
	}
	if r.pageOffset != 20 || r.pageLimit != 10 {
		t.Fatalf("expected offset=20 limit=10, got offset=%d limit=%d", r.pageOffset, r.pageLimit)
	}
}

func TestUserListPage_EmptyDirectory(t *testing.T) {
	s := NewUserService(nil, &fakeUserRepo{countTotal: 0}, &fakeFriendRepo{})

	items, total, err := s.ListPage(context.Background(), 1, 20)
	if err != nil || total != 0 {
		t.Fatalf("expected empty result, got total=%d err=%v", total, err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected non-nil empty slice, got %#v", items)
	}
}

func TestUserGet_MapsNotFound(t *testing.T) {
	s := NewUserService(nil, &fakeUserRepo{}, &fakeFriendRepo{})
	if _, err := s.Get(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	s = NewUserService(nil, &fakeUserRepo{users: map[uint]*domain.User{4: {ID: 4, Username: "dee"}}}, &fakeFriendRepo{})
	u, err := s.Get(context.Background(), 4)
	if err != nil || u.Username != "dee" {
		t.Fatalf("Get: u=%+v err=%v", u, err)
	}
}

func TestDeleteAccount_RemovesFriendshipsThenUser(t *testing.T) {
	ur := &fakeUserRepo{}
	fr := &fakeFriendRepo{}
	s := NewUserService(newSvcDB(t), ur, fr)

	if err := s.DeleteAccount(context.Background(), 9); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if fr.clearedFor != 9 {
		t.Fatalf("friendships not cleared for user 9: %d", fr.clearedFor)
	}
	if ur.deletedID != 9 {
		t.Fatalf("user row not deleted: %d", ur.deletedID)
	}
}

func TestDeleteAccount_MissingUser_RollsBack(t *testing.T) {
	ur := &fakeUserRepo{deleteErr: gorm.ErrRecordNotFound}
	fr := &fakeFriendRepo{}
	s := NewUserService(newSvcDB(t), ur, fr)

	if err := s.DeleteAccount(context.Background(), 9); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteAccount_FriendCleanupFailure_Propagates(t *testing.T) {
	boom := errors.New("boom")
	s := NewUserService(newSvcDB(t), &fakeUserRepo{}, &fakeFriendRepo{clearErr: boom})

	if err := s.DeleteAccount(context.Background(), 9); !errors.Is(err, boom) {
		t.Fatalf("expected cleanup error, got %v", err)
	}
}
