package service

import (
	"context"
	"sync"
	"testing"

	"landrop/share-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadHello(t *testing.T, env *testEnv) *UploadResult {
	t.Helper()
	res, err := env.files.Upload(context.Background(), &UploadRequest{
		Data:         []byte("hello world"),
		OriginalName: "hello.txt",
		MimeType:     "text/plain",
		SourceIP:     "192.168.1.20",
	})
	require.NoError(t, err)
	return res
}

func TestUploadDownload_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	res := uploadHello(t, env)

	require.NotEmpty(t, res.ID)
	assert.Nil(t, res.ExpiresAt)

	dl, err := env.files.Download(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), dl.Data)
	assert.Equal(t, "hello.txt", dl.OriginalName)
	assert.Equal(t, "text/plain", dl.MimeType)

	info, err := env.files.Info(context.Background(), res.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.DownloadCount)
	assert.EqualValues(t, len("hello world"), info.Size)
}

func TestUpload_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.files.Upload(context.Background(), &UploadRequest{
		OriginalName: "empty.txt",
		SourceIP:     "192.168.1.20",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.files.Upload(context.Background(), &UploadRequest{
		Data:     []byte("x"),
		SourceIP: "192.168.1.20",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpload_KeyNeverLeavesLedger(t *testing.T) {
	env := newTestEnv(t)
	res := uploadHello(t, env)

	var record model.File
	require.NoError(t, env.db.Where("id = ?", res.ID).First(&record).Error)
	assert.Len(t, record.EncryptionKey, 32)

	// A second upload must get its own key
	res2 := uploadHello(t, env)
	var record2 model.File
	require.NoError(t, env.db.Where("id = ?", res2.ID).First(&record2).Error)
	assert.NotEqual(t, record.EncryptionKey, record2.EncryptionKey)
}

func TestDownload_Missing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.files.Download(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownload_Expired(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.files.Upload(context.Background(), &UploadRequest{
		Data:             []byte("short lived"),
		OriginalName:     "gone.txt",
		SourceIP:         "192.168.1.20",
		ExpiresInMinutes: int64p(0),
	})
	require.NoError(t, err)
	require.NotNil(t, res.ExpiresAt)

	_, err = env.files.Download(context.Background(), res.ID)
	assert.ErrorIs(t, err, ErrExpired, "expired must be distinct from not-found")

	_, err = env.files.Info(context.Background(), res.ID)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDownload_CounterConcurrent(t *testing.T) {
	env := newTestEnv(t)
	res := uploadHello(t, env)

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)

	for range n {
		go func() {
			defer wg.Done()
			_, err := env.files.Download(context.Background(), res.ID)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	info, err := env.files.Info(context.Background(), res.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, info.DownloadCount, "no lost updates, no double counting")
}

func TestDelete_TombstoneMonotone(t *testing.T) {
	env := newTestEnv(t)
	res := uploadHello(t, env)

	require.NoError(t, env.files.Delete(context.Background(), res.ID))

	// Deleted looks exactly like never-existed
	_, err := env.files.Download(context.Background(), res.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.files.Info(context.Background(), res.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Second delete finds nothing to delete
	assert.ErrorIs(t, env.files.Delete(context.Background(), res.ID), ErrNotFound)

	// The row survives as a tombstone, only the blob is gone
	var record model.File
	require.NoError(t, env.db.Where("id = ?", res.ID).First(&record).Error)
	assert.True(t, record.IsDeleted)

	ok, err := env.store.Exists(context.Background(), record.StoredName)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList_SkipsExpiredAndDeleted(t *testing.T) {
	env := newTestEnv(t)

	keep := uploadHello(t, env)

	gone, err := env.files.Upload(context.Background(), &UploadRequest{
		Data:             []byte("expired"),
		OriginalName:     "expired.txt",
		SourceIP:         "192.168.1.20",
		ExpiresInMinutes: int64p(0),
	})
	require.NoError(t, err)

	deleted := uploadHello(t, env)
	require.NoError(t, env.files.Delete(context.Background(), deleted.ID))

	files, err := env.files.List(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}

	assert.Contains(t, ids, keep.ID)
	assert.NotContains(t, ids, gone.ID)
	assert.NotContains(t, ids, deleted.ID)
}

func TestUpload_FailedRecordLeavesNoBlob(t *testing.T) {
	env := newTestEnv(t)

	// Make sure the anonymous device already exists, then drop the files
	// table so the blob write succeeds but the record insert fails
	_, err := env.devices.SightAnonymous("", "192.168.1.20")
	require.NoError(t, err)
	require.NoError(t, env.db.Migrator().DropTable(model.File{}))

	_, err = env.files.Upload(context.Background(), &UploadRequest{
		Data:         []byte("doomed"),
		OriginalName: "doomed.txt",
		SourceIP:     "192.168.1.20",
	})
	require.Error(t, err)

	// No record table row and no ciphertext blob may survive
	entries, err := blobDirEntries(env)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed upload must not leave orphaned ciphertext")
}
