package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_TokenRoundtrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.GenerateAccessToken("user-1", "tenant-1", []string{"user", "routing"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := manager.UserContextFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
	assert.Equal(t, "tenant-1", user.TenantID)
	assert.Equal(t, []string{"user", "routing"}, user.Roles)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)

	token, err := manager.GenerateAccessToken("user-1", "tenant-1", []string{"user"})
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Millisecond)

	token, err := manager.GenerateAccessToken("user-1", "tenant-1", []string{"user"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_MalformedToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	_, err := manager.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ShouldRenew(t *testing.T) {
	manager := NewJWTManager("test-secret", 10*time.Minute)

	token, err := manager.GenerateAccessToken("user-1", "tenant-1", []string{"user"})
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, manager.ShouldRenew(claims), "token expiring within 30 minutes should renew")

	longLived := NewJWTManager("test-secret", 2*time.Hour)
	token, err = longLived.GenerateAccessToken("user-1", "tenant-1", []string{"user"})
	require.NoError(t, err)
	claims, err = longLived.ValidateToken(token)
	require.NoError(t, err)
	assert.False(t, longLived.ShouldRenew(claims))
}
