package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "ram@example.com", "Ram Sharma", "admin")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "ram@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "hamro", claims.Issuer)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateToken(uuid.New(), "a@b.com", "A", "student")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTManager("other", time.Hour).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTManager("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestClaims_TTL(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateToken(uuid.New(), "a@b.com", "A", "student")
	require.NoError(t, err)
	claims, err := m.ValidateToken(token)
	require.NoError(t, err)

	ttl := claims.TTL(time.Now())
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour)
	assert.Zero(t, claims.TTL(time.Now().Add(3*time.Hour)))
}

func TestMemoryBlacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewMemoryBlacklist()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Revoke(ctx, "tok", time.Minute))
	revoked, err := b.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = b.IsRevoked(ctx, "other")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = b.IsRevoked(ctx, "tok")
	assert.False(t, revoked)
}
