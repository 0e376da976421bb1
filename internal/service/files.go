package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"landrop/share-api/internal/model"
	"landrop/share-api/pkg/security"
	"landrop/share-api/storage"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Files owns the file lifecycle: encrypted upload, expiry-checked download
// and tombstone deletion. Every read path goes through the same
// accessibility check, so a file that's physically present but expired is
// just as gone as one that never existed.
type Files struct {
	db      *gorm.DB
	store   *storage.Store
	devices *Devices
}

func NewFiles(db *gorm.DB, store *storage.Store, devices *Devices) *Files {
	return &Files{db: db, store: store, devices: devices}
}

type UploadRequest struct {
	Data         []byte
	OriginalName string
	MimeType     string
	SourceIP     string

	// Either a known device ID or nothing; with nothing the upload is
	// attributed to an anonymous device keyed by (name, source IP)
	DeviceID   string
	DeviceName string

	// nil means the configured default; 0 means no expiry
	ExpiresInMinutes *int64
}

type UploadResult struct {
	ID         string `json:"id"`
	UploadedAt int64  `json:"uploaded_at"`
	ExpiresAt  *int64 `json:"expires_at,omitzero"`
}

type DownloadResult struct {
	Data         []byte
	OriginalName string
	MimeType     string
}

// Upload encrypts and stores the file, then writes the ledger record. The
// record only exists once the ciphertext is durable; if the record insert
// fails the ciphertext is removed again, so there is never a record without
// a blob or an orphaned blob with a record.
func (f *Files) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: no file body", ErrValidation)
	}
	if req.OriginalName == "" {
		return nil, fmt.Errorf("%w: no file name", ErrValidation)
	}

	owner, err := f.resolveOwner(req)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate file ID, %w", err)
	}

	key, err := security.GenerateFileKey()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	storedName := id + ".bin"

	var expiresAt *int64
	if minutes := f.expiryMinutes(req); minutes != nil {
		ts := now.Add(time.Duration(*minutes) * time.Minute).Unix()
		expiresAt = &ts
	}

	if err := f.store.Put(ctx, storedName, req.Data, key); err != nil {
		return nil, err
	}

	record := &model.File{
		ID:            id,
		StoredName:    storedName,
		OriginalName:  req.OriginalName,
		MimeType:      req.MimeType,
		Size:          int64(len(req.Data)),
		OwnerDeviceID: owner.ID,
		EncryptionKey: key,
		UploadedAt:    now.Unix(),
		ExpiresAt:     expiresAt,
	}

	if err := f.db.Create(record).Error; err != nil {
		// No record may point at nothing and no blob may outlive a failed
		// upload, remove the ciphertext again
		if delErr := f.store.Delete(ctx, storedName); delErr != nil {
			zap.L().Error("Failed to remove blob after failed record insert",
				zap.String("stored_name", storedName), zap.Error(delErr))
		}

		return nil, fmt.Errorf("failed to save file record, %w", err)
	}

	return &UploadResult{
		ID:         id,
		UploadedAt: record.UploadedAt,
		ExpiresAt:  expiresAt,
	}, nil
}

// Download returns the decrypted bytes of an active file and counts the
// download. A sweep racing us between the record check and the blob read
// surfaces as not-found, never as partial bytes.
func (f *Files) Download(ctx context.Context, id string) (*DownloadResult, error) {
	record, err := f.activeRecord(id)
	if err != nil {
		return nil, err
	}

	data, err := f.store.Get(ctx, record.StoredName, record.EncryptionKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	// Single-statement increment so N concurrent downloads add exactly N
	err = f.db.
		Model(model.File{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).
		Error
	if err != nil {
		zap.L().Error("Failed to increment download count",
			zap.String("id", id), zap.Error(err))
	}

	return &DownloadResult{
		Data:         data,
		OriginalName: record.OriginalName,
		MimeType:     record.MimeType,
	}, nil
}

// Info returns the public metadata of an active file.
func (f *Files) Info(ctx context.Context, id string) (*model.File, error) {
	return f.activeRecord(id)
}

// List returns every currently accessible file, newest first.
func (f *Files) List(ctx context.Context) ([]model.File, error) {
	now := time.Now().Unix()

	var files []model.File
	err := f.db.
		Where("is_deleted = ? AND (expires_at IS NULL OR expires_at > ?)", false, now).
		Order("uploaded_at DESC").
		Find(&files).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files, %w", err)
	}

	return files, nil
}

// Delete tombstones the record and then removes the ciphertext. A failed
// blob removal doesn't resurrect the record; the stray ciphertext is
// unreachable without the ledger row and gets no second life.
func (f *Files) Delete(ctx context.Context, id string) error {
	record, err := f.lookup(id)
	if err != nil {
		return err
	}

	res := f.db.
		Model(model.File{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumn("is_deleted", true)
	if res.Error != nil {
		return fmt.Errorf("failed to tombstone file, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// Lost the race against another delete or the sweep
		return ErrNotFound
	}

	if err := f.store.Delete(ctx, record.StoredName); err != nil {
		zap.L().Error("Failed to delete blob for tombstoned file",
			zap.String("id", id), zap.Error(err))
	}

	return nil
}

// activeRecord loads a record and applies the uniform accessibility check.
func (f *Files) activeRecord(id string) (*model.File, error) {
	record, err := f.lookup(id)
	if err != nil {
		return nil, err
	}

	if record.Expired(time.Now().Unix()) {
		return nil, ErrExpired
	}

	return record, nil
}

// lookup resolves an id to a non-deleted record. Deleted and never-existed
// are indistinguishable on purpose.
func (f *Files) lookup(id string) (*model.File, error) {
	var record model.File
	err := f.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to look up file, %w", err)
	}

	if record.IsDeleted {
		return nil, ErrNotFound
	}

	return &record, nil
}

func (f *Files) resolveOwner(req *UploadRequest) (*model.Device, error) {
	if req.DeviceID != "" {
		return f.devices.Touch(req.DeviceID, req.SourceIP)
	}

	return f.devices.SightAnonymous(req.DeviceName, req.SourceIP)
}

// expiryMinutes picks the requested expiry or falls back to the configured
// default. An explicit zero means expire immediately.
func (f *Files) expiryMinutes(req *UploadRequest) *int64 {
	if req.ExpiresInMinutes != nil {
		return req.ExpiresInMinutes
	}

	if def := viper.GetInt64("upload.default_expiry_minutes"); def > 0 {
		return &def
	}

	return nil
}
