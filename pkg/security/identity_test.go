package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateIdentity_StableAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	id1, err := LoadOrCreateIdentity(path, "office-server")
	require.NoError(t, err)
	assert.Len(t, id1.DeviceID, 16)
	assert.Equal(t, "office-server", id1.DeviceName)
	assert.Len(t, id1.PublicKey, 32)
	assert.Len(t, id1.SecretKey, 32)

	id2, err := LoadOrCreateIdentity(path, "ignored-on-reload")
	require.NoError(t, err)
	assert.Equal(t, id1.DeviceID, id2.DeviceID)
	assert.Equal(t, id1.Fingerprint(), id2.Fingerprint())
	assert.Equal(t, id1.PublicKey, id2.PublicKey)
}

func TestLoadOrCreateIdentity_KeysUsable(t *testing.T) {
	dir := t.TempDir()

	a, err := LoadOrCreateIdentity(filepath.Join(dir, "a.json"), "a")
	require.NoError(t, err)
	b, err := LoadOrCreateIdentity(filepath.Join(dir, "b.json"), "b")
	require.NoError(t, err)

	aPub, aSec := a.Keys()
	bPub, bSec := b.Keys()

	blob, err := EncryptForPeer([]byte("ping"), bPub, aSec)
	require.NoError(t, err)

	got, err := DecryptFromPeer(blob, aPub, bSec)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), got)
}

func TestLoadOrCreateIdentity_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadOrCreateIdentity(path, "x")
	assert.Error(t, err)
}
