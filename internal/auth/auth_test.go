package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-go/internal/config"
)

type memBlacklist struct {
	revoked map[string]bool
	err     error
}

func (m *memBlacklist) Add(ctx context.Context, jti string, exp time.Time) error {
	m.revoked[jti] = true
	return nil
}

func (m *memBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

var testAuthCfg = config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "alice", "alice@example.com", testAuthCfg)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, err := GenerateToken(1, "bob", "", testAuthCfg)
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), token, "other-secret", nil)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	cfg := testAuthCfg
	cfg.JWTExpiry = -time.Minute
	token, err := GenerateToken(1, "bob", "", cfg)
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil)
	assert.Error(t, err)
}

func TestValidateTokenRevoked(t *testing.T) {
	bl := &memBlacklist{revoked: map[string]bool{}}
	token, err := GenerateToken(1, "bob", "", testAuthCfg)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, bl)
	require.NoError(t, err)
	require.NoError(t, bl.Add(context.Background(), claims.ID, claims.ExpiresAt.Time))

	_, err = ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, bl)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestValidateTokenBlacklistFailureRejects(t *testing.T) {
	bl := &memBlacklist{revoked: map[string]bool{}, err: errors.New("redis down")}
	token, err := GenerateToken(1, "bob", "", testAuthCfg)
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, bl)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}
