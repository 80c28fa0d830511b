package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/auth"
	"github.com/canwegame/canwegame-api/internal/domain"
	"github.com/canwegame/canwegame-api/internal/repo"
)

// ----- Fake user repo (shared across service tests in this package) -----

type fakeUserRepo struct {
	usernameTaken bool
	usernameErr   error
	emailTaken    bool
	emailErr      error

	createUsername string
	createEmail    string
	createHash     string
	createErr      error
	nextID         uint

	users      map[uint]*domain.User
	byUsername map[string]*domain.User

	countTotal int64
	countErr   error

	pageOffset int
	pageLimit  int
	pageItems  []domain.User
	pageErr    error

	deletedID uint
	deleteErr error
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error) {
	r.createUsername, r.createEmail, r.createHash = username, email, passwordHash
	if r.createErr != nil {
		return nil, r.createErr
	}
	if r.nextID == 0 {
		r.nextID = 1
	}
	return &domain.User{ID: r.nextID, Username: username, Email: email, PasswordHash: passwordHash}, nil
}

func (r *fakeUserRepo) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	if u, ok := r.byUsername[username]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UsernameExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	return r.usernameTaken, r.usernameErr
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	return r.emailTaken, r.emailErr
}

func (r *fakeUserRepo) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeUserRepo) ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeUserRepo) DeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	r.deletedID = id
	return r.deleteErr
}

// ----- Helpers -----

func testHasher() *auth.PasswordHasher {
	// MinCost keeps bcrypt fast in tests.
	return &auth.PasswordHasher{Cost: bcrypt.MinCost}
}

func testIssuer() *auth.TokenIssuer {
	return &auth.TokenIssuer{
		Secret:   []byte("test-secret"),
		Issuer:   "canwegame-test",
		Audience: "canwegame-clients",
		TTL:      30 * time.Minute,
	}
}

// ----- Tests -----

func TestNewAuthService_Defaults(t *testing.T) {
	r := &fakeUserRepo{}
	s := NewAuthService(nil, r, testHasher(), testIssuer())

	if s.Repo != r {
		t.Fatalf("repo not set")
	}
	if s.UsernameMaxLen != 64 {
		t.Fatalf("UsernameMaxLen default = 64, got %d", s.UsernameMaxLen)
	}
	if s.PasswordMinLen != 8 {
		t.Fatalf("PasswordMinLen default = 8, got %d", s.PasswordMinLen)
	}
}

func TestRegister_InputValidation(t *testing.T) {
	s := NewAuthService(nil, &fakeUserRepo{}, testHasher(), testIssuer())
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"blank username", "   ", "a@b.io", "longenough", ErrInvalidUsername},
		{"long username", strings.Repeat("x", 100), "a@b.io", "longenough", ErrInvalidUsername},
		{"no at sign", "ari", "nope", "longenough", ErrInvalidEmail},
		{"no domain dot", "ari", "a@b", "longenough", ErrInvalidEmail},
		{"short password", "ari", "a@b.io", "short", ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Register(ctx, tc.username, tc.email, tc.password); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegister_Conflicts(t *testing.T) {
	ctx := context.Background()

	r := &fakeUserRepo{usernameTaken: true}
	s := NewAuthService(nil, r, testHasher(), testIssuer())
	if _, err := s.Register(ctx, "ari", "ari@example.com", "longenough"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	r = &fakeUserRepo{emailTaken: true}
	s = NewAuthService(nil, r, testHasher(), testIssuer())
	if _, err := s.Register(ctx, "ari", "ari@example.com", "longenough"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_Success_StoresBcryptHash(t *testing.T) {
	r := &fakeUserRepo{}
	s := NewAuthService(nil, r, testHasher(), testIssuer())

	u, err := s.Register(context.Background(), "  ari  ", "ari@example.com", "longenough")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Username != "ari" {
		t.Fatalf("username not trimmed: %q", u.Username)
	}
	if r.createHash == "longenough" || r.createHash == "" {
		t.Fatalf("password stored unhashed: %q", r.createHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(r.createHash), []byte("longenough")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegister_RaceLostOnInsert_ClassifiedAsConflict(t *testing.T) {
	// Fast path sees both free, insert hits the unique index anyway.
	r := &fakeUserRepo{createErr: repo.ErrDuplicate}
	s := NewAuthService(nil, r, testHasher(), testIssuer())

	_, err := s.Register(context.Background(), "ari", "ari@example.com", "longenough")
	if !errors.Is(err, ErrUsernameTaken) && !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected a conflict error, got %v", err)
	}
}

func TestLogin_UniformFailure(t *testing.T) {
	h := testHasher()
	hash, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	r := &fakeUserRepo{byUsername: map[string]*domain.User{
		"ari": {ID: 1, Username: "ari", PasswordHash: hash},
	}}
	s := NewAuthService(nil, r, h, testIssuer())
	ctx := context.Background()

	// Unknown user and wrong password look identical to the caller.
	if _, _, err := s.Login(ctx, "nobody", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := s.Login(ctx, "ari", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_Success_ReturnsVerifiableToken(t *testing.T) {
	h := testHasher()
	hash, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	r := &fakeUserRepo{byUsername: map[string]*domain.User{
		"ari": {ID: 42, Username: "ari", PasswordHash: hash},
	}}
	issuer := testIssuer()
	s := NewAuthService(nil, r, h, issuer)

	token, u, err := s.Login(context.Background(), "ari", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u == nil || u.ID != 42 {
		t.Fatalf("unexpected user: %+v", u)
	}

	claims, err := issuer.Authenticate(token)
	if err != nil {
		t.Fatalf("token does not round-trip: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "ari" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
