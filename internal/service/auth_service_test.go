package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(nil, nil, AuthConfig{Secret: "secret", Issuer: "grade-ledger", Expiration: time.Hour})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	issued, err := svc.IssueToken(models.IssueTokenRequest{Identity: " 0xteacher "})
	require.NoError(t, err)
	assert.Equal(t, "0xteacher", issued.Identity)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "0xteacher", claims.Identity)
	assert.Equal(t, "0xteacher", claims.Subject)
}

func TestAuthServiceRejectsNullIdentity(t *testing.T) {
	svc := newTestAuthService()
	_, err := svc.IssueToken(models.IssueTokenRequest{Identity: models.NullIdentity})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.IssueToken(models.IssueTokenRequest{})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceValidateFallsBackToSubject(t *testing.T) {
	svc := newTestAuthService()
	claims := jwt.RegisteredClaims{
		Issuer:    "grade-ledger",
		Subject:   "0xstudent",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	parsed, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "0xstudent", parsed.Identity)
}

func TestAuthServiceValidateRejects(t *testing.T) {
	svc := newTestAuthService()

	other := NewAuthService(nil, nil, AuthConfig{Secret: "other", Issuer: "grade-ledger"})
	foreign, err := other.IssueToken(models.IssueTokenRequest{Identity: "0xa"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign.Token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongIssuer := NewAuthService(nil, nil, AuthConfig{Secret: "secret", Issuer: "someone-else"})
	token, err := wrongIssuer.IssueToken(models.IssueTokenRequest{Identity: "0xa"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(token.Token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	expired, err := svc.IssueToken(models.IssueTokenRequest{Identity: "0xa", TTL: time.Nanosecond})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = svc.ValidateToken(expired.Token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("not-a-token")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
