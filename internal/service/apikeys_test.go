package service

import (
	"testing"
	"time"

	"landrop/share-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAuthenticate(t *testing.T) {
	env := newTestEnv(t)

	secret, key, err := env.keys.Mint(&MintOpts{
		DeviceID:    env.devices.SelfID(),
		Permissions: model.PermSet{model.PermRead, model.PermWrite},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.NotEqual(t, secret, key.KeyHash, "plaintext secret must never be stored")

	got, err := env.keys.Authenticate(secret)
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)
	assert.True(t, got.Permissions.Has(model.PermRead))
	assert.True(t, got.Permissions.Has(model.PermWrite))
	assert.False(t, got.Permissions.Has(model.PermAdmin))
}

func TestMint_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.keys.Mint(&MintOpts{Permissions: model.PermSet{model.PermRead}})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = env.keys.Mint(&MintOpts{
		DeviceID:    env.devices.SelfID(),
		Permissions: model.PermSet{"launch-missiles"},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = env.keys.Mint(&MintOpts{DeviceID: env.devices.SelfID()})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthenticate_Misses(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.keys.Authenticate("")
	assert.ErrorIs(t, err, ErrAuth)

	_, err = env.keys.Authenticate("never-minted")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestAuthenticate_Expired(t *testing.T) {
	env := newTestEnv(t)

	past := time.Now().Add(-time.Minute).Unix()
	secret, _, err := env.keys.Mint(&MintOpts{
		DeviceID:    env.devices.SelfID(),
		Permissions: model.PermSet{model.PermRead},
		ExpiresAt:   &past,
	})
	require.NoError(t, err)

	_, err = env.keys.Authenticate(secret)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestRevoke_Scenario(t *testing.T) {
	env := newTestEnv(t)

	secret, key, err := env.keys.Mint(&MintOpts{
		DeviceID:    env.devices.SelfID(),
		Permissions: model.PermSet{model.PermAdmin},
	})
	require.NoError(t, err)

	_, err = env.keys.Authenticate(secret)
	require.NoError(t, err)

	require.NoError(t, env.keys.Revoke(key.ID))

	// Same key value now fails, even though the hash row still exists
	_, err = env.keys.Authenticate(secret)
	assert.ErrorIs(t, err, ErrAuth)

	var row model.APIKey
	require.NoError(t, env.db.Where("id = ?", key.ID).First(&row).Error)
	assert.False(t, row.IsActive)
	assert.NotEmpty(t, row.KeyHash, "revocation keeps the audit trail")

	// Revoking twice finds nothing active
	assert.ErrorIs(t, env.keys.Revoke(key.ID), ErrNotFound)
}

func TestBootstrap(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.keys.Bootstrap(env.devices.SelfID()))

	keys, err := env.keys.List()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, keys[0].Permissions.Has(model.PermAdmin))

	// Second bootstrap is a no-op while an active key exists
	require.NoError(t, env.keys.Bootstrap(env.devices.SelfID()))
	keys, err = env.keys.List()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}
