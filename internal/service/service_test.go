package service

import (
	"os"
	"path/filepath"
	"testing"

	"landrop/share-api/internal/model"
	"landrop/share-api/pkg/security"
	"landrop/share-api/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	store    *storage.Store
	blobDir  string
	identity *security.Identity
	devices  *Devices
	files    *Files
	keys     *APIKeys
	sweeper  *Sweeper
}

func blobDirEntries(env *testEnv) ([]os.DirEntry, error) {
	return os.ReadDir(env.blobDir)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "ledger.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.File{}, model.Device{}, model.APIKey{}))

	blobDir := filepath.Join(dir, "blobs")
	local, err := storage.NewLocal(blobDir)
	require.NoError(t, err)
	store := storage.NewStore(local)

	identity, err := security.LoadOrCreateIdentity(filepath.Join(dir, "identity.json"), "test-node")
	require.NoError(t, err)

	devices, err := NewDevices(db, identity)
	require.NoError(t, err)

	return &testEnv{
		db:       db,
		store:    store,
		blobDir:  blobDir,
		identity: identity,
		devices:  devices,
		files:    NewFiles(db, store, devices),
		keys:     NewAPIKeys(db),
		sweeper:  NewSweeper(db, store),
	}
}

func int64p(v int64) *int64 {
	return &v
}
