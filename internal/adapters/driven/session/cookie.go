// Package session provides session storage for authenticated users.
package session

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// CookieSessionStore implements the session store port using JWT tokens.
// Tokens are signed with RSA (RS256) and are stateless; the token itself
// is the session, carried in a cookie by the HTTP layer.
type CookieSessionStore struct {
	privateKey *rsa.PrivateKey
	duration   time.Duration
}

// sessionClaims defines the JWT claims structure for sessions.
type sessionClaims struct {
	jwt.RegisteredClaims
	IdPEntityID  string            `json:"idp"`
	NameIDFormat string            `json:"nif,omitempty"`
	SessionIndex string            `json:"six,omitempty"`
	Attributes   map[string]string `json:"attrs,omitempty"`
}

// NewCookieSessionStore creates a new JWT-based session store.
func NewCookieSessionStore(privateKey *rsa.PrivateKey, duration time.Duration) *CookieSessionStore {
	return &CookieSessionStore{
		privateKey: privateKey,
		duration:   duration,
	}
}

// Create generates a signed JWT token from the session.
func (s *CookieSessionStore) Create(session *domain.Session) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
		IdPEntityID:  session.IdPEntityID,
		NameIDFormat: session.NameIDFormat,
		SessionIndex: session.SessionIndex,
		Attributes:   session.Attributes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.privateKey)
}

// Get validates a JWT token and returns the session.
func (s *CookieSessionStore) Get(token string) (*domain.Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return &s.privateKey.PublicKey, nil
	})
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrSessionNotFound
	}

	return &domain.Session{
		Subject:      claims.Subject,
		Attributes:   claims.Attributes,
		IdPEntityID:  claims.IdPEntityID,
		NameIDFormat: claims.NameIDFormat,
		SessionIndex: claims.SessionIndex,
		IssuedAt:     claims.IssuedAt.Time,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}

// Delete is a no-op for stateless JWT sessions.
// Actual cookie removal happens in the HTTP layer.
func (s *CookieSessionStore) Delete(token string) error {
	return nil
}

// Interface guard
var _ ports.SessionStore = (*CookieSessionStore)(nil)
