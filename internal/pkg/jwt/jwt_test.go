package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/notifyd/internal/pkg/clock"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func newTestJWT(t *testing.T, clk *clock.Fixed) *Symmetric {
	t.Helper()
	j, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "notifyd",
		Audiences: []string{"notifyd-web"},
		TTL:       15 * time.Minute,
		Clock:     clk,
		UUID:      staticID("jti-1"),
	})
	require.NoError(t, err)
	return j
}

func TestSymmetric_RoundTrip(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	j := newTestJWT(t, clk)

	token, err := j.Generate(42, "ana@example.com")
	require.NoError(t, err)

	clm, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), clm.UserID)
	assert.Equal(t, "42", clm.Subject)
	assert.Equal(t, "ana@example.com", clm.UserEmail)
	assert.Equal(t, "jti-1", clm.ID)
}

func TestSymmetric_Expired(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	j := newTestJWT(t, clk)

	token, err := j.Generate(42, "ana@example.com")
	require.NoError(t, err)

	clk.Advance(16 * time.Minute)
	_, err = j.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestNewHS512_ShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestAuthContext(t *testing.T) {
	assert.Nil(t, GetAuth(context.Background()))

	ctx := SetAuth(context.Background(), Claims{UserID: 7})
	require.NotNil(t, GetAuth(ctx))
	assert.Equal(t, int64(7), GetAuth(ctx).UserID)
}
