package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", 24*time.Hour)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	first, err := svc.Verify(token)
	require.NoError(t, err)
	second, err := svc.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", first)
	assert.Equal(t, first, second)
}

func TestTokenService_ExpiresAfterTTL(t *testing.T) {
	issuedAt := time.Now().Add(-25 * time.Hour)
	svc := NewTokenService("test-secret", 24*time.Hour)

	token, err := svc.WithClock(func() time.Time { return issuedAt }).Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Still valid just before the deadline.
	_, err = svc.WithClock(func() time.Time { return issuedAt.Add(23 * time.Hour) }).Verify(token)
	assert.NoError(t, err)
}

func TestTokenService_Rejections(t *testing.T) {
	svc := NewTokenService("right-secret", time.Hour)

	forged, err := NewTokenService("wrong-secret", time.Hour).Issue("user-1")
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "user-1"}).
		SignedString([]byte("right-secret"))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"forged signature", forged},
		{"missing expiry", noExpiry},
		{"missing user id", noUser},
		{"alg none", unsigned},
		{"malformed", "not.a.jwt"},
		{"garbage", "notavalidjwt"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := svc.Verify(tt.token)
			assert.Empty(t, userID)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
