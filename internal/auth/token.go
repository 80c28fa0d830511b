// Package auth implements credential handling and stateless session tokens.
//
// This file provides the session issuer and authenticator. Tokens are
// compact HS256 JWTs carrying the user id (sub), the username, a unique
// token id (jti, for audit correlation only — there is no revocation list),
// and issued-at/expiry timestamps. Issuer and audience are fixed configured
// strings validated on every verification.
//
// The signing secret is process-wide and read-only after startup; rotating
// it silently invalidates every outstanding token (signature verification
// fails). A token remains valid until its encoded expiry regardless of
// server-side events such as a password change. That is a deliberate
// simplicity/availability tradeoff of the stateless design.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every token verification failure: bad
// signature, expiry, wrong issuer or audience, or a malformed token. The
// single sentinel keeps the external response structurally incapable of
// leaking which check failed.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the trusted identity claims extracted from a verified token.
type Claims struct {
	// UserID is the authenticated account id (the "sub" claim).
	UserID uint
	// Username is the display name captured at issuance.
	Username string
	// TokenID is the unique token identifier (jti), for audit logs.
	TokenID string
}

// sessionClaims is the internal claims type used for JWT round trips.
type sessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"name"`
}

// TokenIssuer mints and verifies bearer tokens for authenticated sessions.
// It is safe for concurrent use; all fields are read-only after startup.
type TokenIssuer struct {
	// Secret is the HMAC-SHA256 signing key shared by issuance and
	// verification.
	Secret []byte
	// Issuer and Audience are fixed strings, validated on every call to
	// Authenticate.
	Issuer   string
	Audience string
	// TTL is the validity window applied at issuance.
	TTL time.Duration
	// Now allows tests to control time; defaults to time.Now.
	Now func() time.Time
}

// Issue mints a signed token for a verified identity. Two tokens issued for
// the same identity are never byte-identical: each carries a fresh jti and
// its own issued-at timestamp.
func (ti *TokenIssuer) Issue(userID uint, username string) (string, error) {
	if len(ti.Secret) == 0 {
		return "", errors.New("token issuer: signing secret not configured")
	}
	now := ti.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    ti.Issuer,
			Audience:  jwt.ClaimStrings{ti.Audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.TTL)),
		},
		Username: username,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(ti.Secret)
}

// Authenticate verifies a bearer token and extracts the caller's identity.
// Signature, issuer, audience, and expiry are all checked; any failure maps
// uniformly to ErrInvalidToken.
func (ti *TokenIssuer) Authenticate(tokenString string) (*Claims, error) {
	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (any, error) {
		return ti.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(ti.Issuer),
		jwt.WithAudience(ti.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	uid, err := strconv.ParseUint(parsed.Subject, 10, 64)
	if err != nil || uid == 0 {
		return nil, ErrInvalidToken
	}
	return &Claims{
		UserID:   uint(uid),
		Username: parsed.Username,
		TokenID:  parsed.ID,
	}, nil
}

func (ti *TokenIssuer) now() time.Time {
	if ti.Now != nil {
		return ti.Now()
	}
	return time.Now()
}
