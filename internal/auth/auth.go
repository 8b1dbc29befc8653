// Package auth issues and verifies administrator sessions
//
// There is a single administrator whose credentials come from configuration.
// A successful sign-in yields an HS256 JWT that the server accepts either as
// a bearer token or as a session cookie
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kode4food/appflow/internal/config"
	"github.com/kode4food/appflow/pkg/api"
)

type (
	// Authenticator checks credentials and manages session tokens
	Authenticator struct {
		cfg config.AuthConfig
		now func() time.Time
	}

	// Claims are the JWT claims carried by a session token
	Claims struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		jwt.RegisteredClaims
	}
)

const (
	AdminUserID = "1"
	AdminName   = "Curious Frame Admin"
	Issuer      = "appflow"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// New creates an Authenticator for the configured administrator
func New(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		cfg: cfg,
		now: time.Now,
	}
}

// WithClock returns a copy of the Authenticator that reads time from now
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	res := *a
	res.now = now
	return &res
}

// SignIn checks the credentials and issues a new session token
func (a *Authenticator) SignIn(
	username, password string,
) (string, *Claims, error) {
	userOK := subtle.ConstantTimeCompare(
		[]byte(username), []byte(a.cfg.Username),
	)
	passOK := subtle.ConstantTimeCompare(
		[]byte(password), []byte(a.cfg.Password),
	)
	if userOK&passOK != 1 || a.cfg.Username == "" {
		return "", nil, ErrInvalidCredentials
	}
	return a.Issue()
}

// Issue creates a signed session token for the administrator
func (a *Authenticator) Issue() (string, *Claims, error) {
	now := a.now()
	claims := &Claims{
		Name:  AdminName,
		Email: a.cfg.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   AdminUserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.MaxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.cfg.Secret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify parses a session token and checks its signature and lifetime
func (a *Authenticator) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) {
			return []byte(a.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithSubject(AdminUserID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return &claims, nil
}

// NeedsRefresh reports whether a still-valid session is old enough to be
// re-issued
func (a *Authenticator) NeedsRefresh(c *Claims) bool {
	if c.IssuedAt == nil {
		return true
	}
	return a.now().Sub(c.IssuedAt.Time) >= a.cfg.UpdateAge
}

// MaxAge returns the configured session lifetime
func (a *Authenticator) MaxAge() time.Duration {
	return a.cfg.MaxAge
}

// User returns the API view of the session's user
func (c *Claims) User() *api.SessionUser {
	return &api.SessionUser{
		ID:    c.Subject,
		Name:  c.Name,
		Email: c.Email,
	}
}
