package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShare(t *testing.T) *Share {
	t.Helper()
	viper.Set("share.secret", "test-secret-value")
	viper.Set("share.token_minutes", 60)
	t.Cleanup(func() {
		viper.Set("share.secret", "")
	})
	return NewShare()
}

func TestShare_MintRedeem(t *testing.T) {
	s := newTestShare(t)

	token, err := s.Mint("file123")
	require.NoError(t, err)

	fileID, err := s.Redeem(token)
	require.NoError(t, err)
	assert.Equal(t, "file123", fileID)
}

func TestShare_ForgedToken(t *testing.T) {
	s := newTestShare(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"file_id": "file123",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = s.Redeem(signed)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestShare_ExpiredToken(t *testing.T) {
	s := newTestShare(t)

	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"file_id": "file123",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := stale.SignedString([]byte("test-secret-value"))
	require.NoError(t, err)

	_, err = s.Redeem(signed)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestShare_GarbageToken(t *testing.T) {
	s := newTestShare(t)

	_, err := s.Redeem("not.a.jwt")
	assert.ErrorIs(t, err, ErrAuth)

	_, err = s.Redeem("")
	assert.ErrorIs(t, err, ErrAuth)
}
