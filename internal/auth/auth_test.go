package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/kode4food/appflow/internal/assert/helpers"
	"github.com/kode4food/appflow/internal/auth"
)

func TestSignIn(t *testing.T) {
	a := auth.New(helpers.NewTestConfig().Auth)

	token, claims, err := a.SignIn(helpers.TestUsername, helpers.TestPassword)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, auth.AdminUserID, claims.Subject)
	assert.NotEmpty(t, claims.ID)

	user := claims.User()
	assert.Equal(t, auth.AdminName, user.Name)
	assert.Equal(t, helpers.NewTestConfig().Auth.Email, user.Email)

	verified, err := a.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, claims.ID, verified.ID)
}

func TestSignInBadCredentials(t *testing.T) {
	a := auth.New(helpers.NewTestConfig().Auth)

	for _, c := range [][2]string{
		{helpers.TestUsername, "wrong"},
		{"wrong", helpers.TestPassword},
		{"", ""},
	} {
		_, _, err := a.SignIn(c[0], c[1])
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}
}

func TestSignInDisabledWithoutUsername(t *testing.T) {
	cfg := helpers.NewTestConfig().Auth
	cfg.Username = ""
	cfg.Password = ""

	_, _, err := auth.New(cfg).SignIn("", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerifyRejects(t *testing.T) {
	cfg := helpers.NewTestConfig().Auth
	a := auth.New(cfg)

	_, err := a.Verify("")
	assert.ErrorIs(t, err, auth.ErrInvalidSession)

	_, err = a.Verify("not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidSession)

	other := cfg
	other.Secret = "a-different-secret"
	token, _, err := auth.New(other).Issue()
	assert.NoError(t, err)
	_, err = a.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    auth.Issuer,
		Subject:   auth.AdminUserID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)
	_, err = a.Verify(unsigned)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

func TestVerifyExpired(t *testing.T) {
	cfg := helpers.NewTestConfig().Auth
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	issuer := auth.New(cfg).WithClock(func() time.Time { return start })
	token, _, err := issuer.Issue()
	assert.NoError(t, err)

	later := issuer.WithClock(func() time.Time {
		return start.Add(cfg.MaxAge + time.Minute)
	})
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestNeedsRefresh(t *testing.T) {
	cfg := helpers.NewTestConfig().Auth
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	issuer := auth.New(cfg).WithClock(func() time.Time { return start })
	_, claims, err := issuer.Issue()
	assert.NoError(t, err)
	assert.False(t, issuer.NeedsRefresh(claims))

	later := issuer.WithClock(func() time.Time {
		return start.Add(cfg.UpdateAge + time.Second)
	})
	assert.True(t, later.NeedsRefresh(claims))
}
