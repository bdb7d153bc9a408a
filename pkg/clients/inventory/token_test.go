package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/batchdesk/pkg/clients/inventory"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "dashboard",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestStaticToken_ReadsExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	src := inventory.NewStaticToken(signedToken(t, exp), nil)

	got, ok := src.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestStaticToken_OpaqueToken(t *testing.T) {
	src := inventory.NewStaticToken("  opaque-token  ", nil)

	_, ok := src.ExpiresAt()
	assert.False(t, ok)

	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)
}

func TestStaticToken_ExpiredTokenWarnsOnceAndIsStillSent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	raw := signedToken(t, time.Now().Add(-time.Hour))
	src := inventory.NewStaticToken(raw, zap.New(core))

	for i := 0; i < 3; i++ {
		token, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, raw, token)
	}

	assert.Equal(t, 1, logs.FilterMessage("inventory api token has expired").Len())
}

func TestStaticToken_BlankTokenIsNotConfigured(t *testing.T) {
	_, err := inventory.NewStaticToken("   ", nil).Token(context.Background())
	assert.ErrorIs(t, err, inventory.ErrNoToken)
}
