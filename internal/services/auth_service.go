// Package services – AuthService
//
// This file implements the AuthService, which handles account registration
// and login. Registration runs fast-path uniqueness checks for username and
// email before hashing; the storage-level unique indexes remain authoritative
// and a constraint violation that slips past the fast path is classified as
// the same conflict. Login collapses every failure mode into a single
// ErrInvalidCredentials so callers cannot probe which usernames exist.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/auth"
	"github.com/canwegame/canwegame-api/internal/domain"
	"github.com/canwegame/canwegame-api/internal/repo"
)

// UserRepo defines the repository contract required by AuthService and
// UserService. Implementations are responsible for persistence of accounts.
type UserRepo interface {
	// CreateUser inserts a new user row; duplicate username/email maps to
	// repo.ErrDuplicate.
	CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error)

	// GetUser fetches a user by primary key.
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)

	// GetUserByUsername fetches a user by exact username.
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)

	// UsernameExists reports whether a username is already registered.
	UsernameExists(ctx context.Context, db *gorm.DB, username string) (bool, error)

	// EmailExists reports whether an email is already registered.
	EmailExists(ctx context.Context, db *gorm.DB, email string) (bool, error)

	// CountUsers returns the total number of accounts for pagination.
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)

	// ListUsersPage returns a page of accounts ordered by id.
	ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error)

	// DeleteUser removes an account by primary key.
	DeleteUser(ctx context.Context, db *gorm.DB, id uint) error
}

// AuthService provides registration and login. It owns the bcrypt hashing
// policy and the session token issuer.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// Hasher applies the bcrypt cost policy.
	Hasher *auth.PasswordHasher
	// Tokens issues signed session tokens on successful login.
	Tokens *auth.TokenIssuer

	// UsernameMaxLen caps usernames by byte length.
	UsernameMaxLen int
	// PasswordMinLen is the minimum accepted password length.
	PasswordMinLen int
}

// NewAuthService constructs an AuthService with sane validation defaults.
func NewAuthService(db *gorm.DB, r UserRepo, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{
		DB:             db,
		Repo:           r,
		Hasher:         hasher,
		Tokens:         tokens,
		UsernameMaxLen: 64,
		PasswordMinLen: 8,
	}
}

// Register validates and creates a new account. Username and email collisions
// return ErrUsernameTaken / ErrEmailTaken; a storage-level unique violation
// that races past the fast-path checks is re-checked and classified the same
// way.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || len(username) > s.UsernameMaxLen {
		return nil, ErrInvalidUsername
	}
	if !looksLikeEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < s.PasswordMinLen {
		return nil, ErrWeakPassword
	}

	// Fast-path checks give precise conflict errors before paying for bcrypt.
	if taken, err := s.Repo.UsernameExists(ctx, s.DB, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.Repo.EmailExists(ctx, s.DB, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, username, email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a race after the fast path; attribute the conflict.
			if taken, exErr := s.Repo.UsernameExists(ctx, s.DB, username); exErr == nil && taken {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns a signed session token with the
// authenticated user. Unknown usernames and wrong passwords both return
// ErrInvalidCredentials; a bcrypt comparison runs either way so the two
// failures take comparable time.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	u, err := s.Repo.GetUserByUsername(ctx, s.DB, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Burn a comparison against a fixed dummy hash.
			s.Hasher.Verify(password, dummyBcryptHash)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !s.Hasher.Verify(password, u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID, u.Username)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// dummyBcryptHash is a valid bcrypt digest of an unknowable random input,
// used to equalize login timing when the username does not exist.
const dummyBcryptHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// looksLikeEmail applies a minimal shape check: one "@" with non-empty local
// part and a domain containing a dot.
func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	dom := s[at+1:]
	if strings.Contains(dom, "@") {
		return false
	}
	dot := strings.Index(dom, ".")
	return dot > 0 && dot < len(dom)-1
}
