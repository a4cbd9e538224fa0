package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("a-long-enough-secret-for-hs256-signing", time.Hour)
	id := uuid.New()

	raw, err := tm.Issue(id, "admin")
	require.NoError(t, err)

	got, err := tm.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenRejected(t *testing.T) {
	tm := NewTokenManager("a-long-enough-secret-for-hs256-signing", time.Hour)
	id := uuid.New()
	valid, err := tm.Issue(id, "")
	require.NoError(t, err)

	other := NewTokenManager("some-other-secret-entirely-different", time.Hour)
	forged, err := other.Issue(id, "")
	require.NoError(t, err)

	expiredMgr := NewTokenManager("a-long-enough-secret-for-hs256-signing", time.Minute)
	expiredMgr.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredMgr.Issue(id, "")
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()},
	}).SignedString([]byte("a-long-enough-secret-for-hs256-signing"))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("a-long-enough-secret-for-hs256-signing"))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"wrong secret", forged},
		{"expired", expired},
		{"no expiry", noExpiry},
		{"bad subject", badSubject},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Parse(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestTokensDisabled(t *testing.T) {
	tm := NewTokenManager("", 0)
	assert.False(t, tm.Enabled())

	_, err := tm.Issue(uuid.New(), "")
	assert.ErrorIs(t, err, ErrTokensDisabled)

	_, err = tm.Parse("anything")
	assert.ErrorIs(t, err, ErrTokensDisabled)

	var nilMgr *TokenManager
	assert.False(t, nilMgr.Enabled())
}
