// Package auth gates the directory behind a login.
//
// Credentials are checked by a Verifier. The provided StaticVerifier holds
// bcrypt hashes from configuration; it is a gate, not an identity system.
// A successful login is carried as a signed session token in a cookie.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a username/password pair is
// rejected. It never says which half was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Verifier checks a username and password.
type Verifier interface {
	// Verify returns nil on success and ErrInvalidCredentials on mismatch.
	// Other errors mean the check itself could not be performed.
	Verify(ctx context.Context, username, password string) error
}

// StaticVerifier checks passwords against a fixed map of bcrypt hashes.
type StaticVerifier struct {
	hashes map[string][]byte
}

// dummyHash is compared when the username is unknown so that unknown users
// take as long to reject as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("staffdir-dummy"), bcrypt.MinCost)

// NewStaticVerifier creates a verifier from username -> bcrypt hash.
// Returns an error if any hash is not a bcrypt hash.
func NewStaticVerifier(users map[string]string) (*StaticVerifier, error) {
	hashes := make(map[string][]byte, len(users))
	for user, hash := range users {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("user %q: %w", user, err)
		}
		hashes[user] = []byte(hash)
	}
	return &StaticVerifier{hashes: hashes}, nil
}

// Verify implements Verifier.
func (v *StaticVerifier) Verify(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hash, ok := v.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("verify %q: %w", username, err)
	}
	return nil
}

// Users returns the number of configured users.
func (v *StaticVerifier) Users() int {
	return len(v.hashes)
}

// HashPassword returns a bcrypt hash of password. A cost of 0 uses
// bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
