// Package auth is the identity provider: bcrypt password hashing and
// JWT issuance/verification. The game coordinator never sees any of
// this; it only consumes the {id, username} identity a verified token
// yields.
package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// bcrypt work factor, matching the cost used for existing accounts.
const hashCost = 12

// Identity is the authenticated player identity attached to a
// connection.
type Identity struct {
	ID       string
	Username string
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens. Revoked tokens are tracked in
// an in-memory blacklist until they would have expired anyway, so the
// blacklist does not survive a restart.
type Service struct {
	secret []byte
	ttl    time.Duration

	mu        sync.Mutex
	blacklist map[string]time.Time // token -> expiry
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret:    []byte(secret),
		ttl:       ttl,
		blacklist: make(map[string]time.Time),
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a token carrying the user's id and username.
func (s *Service) IssueToken(id, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.secret)
}

// VerifyToken validates the signature and expiry and rejects revoked
// tokens.
func (s *Service) VerifyToken(tokenString string) (*Identity, error) {
	s.mu.Lock()
	_, revoked := s.blacklist[tokenString]
	s.mu.Unlock()
	if revoked {
		return nil, ErrTokenRevoked
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Identity{ID: c.Subject, Username: c.Username}, nil
}

// RevokeToken blacklists a token, typically on logout.
func (s *Service) RevokeToken(tokenString string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blacklist[tokenString] = time.Now().Add(s.ttl)

	// Drop entries that have outlived any possible token lifetime.
	now := time.Now()
	for token, expiry := range s.blacklist {
		if now.After(expiry) {
			delete(s.blacklist, token)
		}
	}
}
