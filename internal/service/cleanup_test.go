package service

import (
	"context"
	"testing"

	"landrop/share-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_ReclaimsExpired(t *testing.T) {
	env := newTestEnv(t)

	expired, err := env.files.Upload(context.Background(), &UploadRequest{
		Data:             []byte("old"),
		OriginalName:     "old.txt",
		SourceIP:         "192.168.1.20",
		ExpiresInMinutes: int64p(0),
	})
	require.NoError(t, err)

	alive := uploadHello(t, env)

	report, err := env.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.Expired)
	assert.EqualValues(t, 1, report.Reclaimed)

	// The expired record is tombstoned, its blob gone
	var record model.File
	require.NoError(t, env.db.Where("id = ?", expired.ID).First(&record).Error)
	assert.True(t, record.IsDeleted)

	ok, err := env.store.Exists(context.Background(), record.StoredName)
	require.NoError(t, err)
	assert.False(t, ok)

	// The live file is untouched
	_, err = env.files.Download(context.Background(), alive.ID)
	assert.NoError(t, err)
}

func TestSweep_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.files.Upload(context.Background(), &UploadRequest{
		Data:             []byte("old"),
		OriginalName:     "old.txt",
		SourceIP:         "192.168.1.20",
		ExpiresInMinutes: int64p(0),
	})
	require.NoError(t, err)

	first, err := env.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Expired)

	second, err := env.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Expired, "second run must find nothing")
	assert.Zero(t, second.Reclaimed)
}

func TestSweep_SkipsExplicitlyDeleted(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.files.Upload(context.Background(), &UploadRequest{
		Data:             []byte("going twice"),
		OriginalName:     "twice.txt",
		SourceIP:         "192.168.1.20",
		ExpiresInMinutes: int64p(0),
	})
	require.NoError(t, err)

	require.NoError(t, env.files.Delete(context.Background(), res.ID))

	report, err := env.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Expired, "already-deleted records are skipped")
}

func TestSweep_EmptyLedger(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Expired)
	assert.Zero(t, report.Reclaimed)
}
