// Package auth implements credential handling and stateless session tokens.
//
// This file provides password hashing and verification backed by bcrypt.
// Hashes embed a fresh random salt and the cost parameter, so hashing the
// same password twice yields two different strings that both verify. Hashes
// are therefore never compared for equality directly.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with a configurable bcrypt
// cost. The zero value uses bcrypt's default cost.
type PasswordHasher struct {
	// Cost is the bcrypt work factor. Values outside bcrypt's supported
	// range fall back to bcrypt.DefaultCost.
	Cost int
}

// Hash produces a salted bcrypt digest of plain. Each call generates a new
// salt, so output differs between calls even for identical input.
func (p PasswordHasher) Hash(plain string) (string, error) {
	cost := p.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches the stored bcrypt hash. It returns
// false for mismatches and for malformed hashes alike; the caller cannot
// distinguish the two, which keeps login failures uniform.
func (p PasswordHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
