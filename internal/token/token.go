// apps/go-server/internal/token/token.go
//
// Bearer token service.
// Tokens are HS256 JWTs carrying {username, id} with a fixed lifetime.
// Verification separates expired tokens from every other failure so
// callers can report them differently.

package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrNoSecret     = errors.New("token signing secret is empty")
)

// Claims is the token payload.
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"id"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens with a single signing key.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService fails when secret is empty.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of s that reads time from now. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	c := *s
	c.now = now
	return &c
}

// Issue signs a token for u that expires ttl from now.
func (s *Service) Issue(u model.User) (string, time.Time, error) {
	iat := s.now()
	exp := iat.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: u.Username,
		UserID:   u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (s *Service) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, ErrTokenInvalid
	}
	if claims.UserID == "" || claims.Username == "" {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
