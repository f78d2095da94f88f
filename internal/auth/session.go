package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/roach88/staffdir/internal/clock"
)

// MinSecretLen is the shortest accepted session signing secret.
const MinSecretLen = 32

// DefaultSessionTTL is how long a login lasts.
const DefaultSessionTTL = 12 * time.Hour

const issuer = "staffdir"

// ErrWeakSecret is returned by NewSessions for a short secret.
var ErrWeakSecret = fmt.Errorf("session secret must be at least %d bytes", MinSecretLen)

// Claims is the payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Sessions issues and validates HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// SessionOption configures Sessions.
type SessionOption func(*Sessions)

// WithSessionClock sets the clock used for issue and expiry times.
func WithSessionClock(c clock.Clock) SessionOption {
	return func(s *Sessions) {
		s.clock = c
	}
}

// NewSessions creates a token issuer. A non-positive ttl uses
// DefaultSessionTTL.
func NewSessions(secret []byte, ttl time.Duration, opts ...SessionOption) (*Sessions, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &Sessions{secret: secret, ttl: ttl}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = clock.OrSystem(s.clock)
	return s, nil
}

// TTL returns the session lifetime.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue returns a signed token for username and its expiry.
func (s *Sessions) Issue(username string) (string, time.Time, error) {
	now := s.clock.Now()
	exp := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: username,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, exp, nil
}

// Validate parses a token and checks its signature, issuer and expiry.
// Only HS256 is accepted.
func (s *Sessions) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
