// Package model defines database models
package model

// File is the ledger record for one uploaded, encrypted object. The
// ciphertext lives in the blob store under StoredName; everything the UI
// shows comes from here.
type File struct {
	ID            string `gorm:"primaryKey" json:"id"`
	StoredName    string `gorm:"not null" json:"-"` // Blob name, derived from ID, never the user-supplied name
	OriginalName  string `json:"name"`
	MimeType      string `json:"mime_type"`
	Size          int64  `json:"size"`
	OwnerDeviceID string `gorm:"index" json:"owner_device_id"`

	// One key per file, generated at upload, never sent to any client
	EncryptionKey []byte `gorm:"not null" json:"-"`

	// Unix second timestamps
	UploadedAt int64  `gorm:"not null" json:"uploaded_at"`
	ExpiresAt  *int64 `json:"expires_at,omitzero"`

	DownloadCount int64 `json:"download_count"`

	// Tombstone. Once true the record is invisible to every read path,
	// whether or not the ciphertext is still on disk
	IsDeleted bool `gorm:"index" json:"-"`
}

// Accessible reports whether the file may be served at the given unix time.
// Applied uniformly at list, info and download time.
func (f *File) Accessible(now int64) bool {
	return !f.IsDeleted && (f.ExpiresAt == nil || now < *f.ExpiresAt)
}

// Expired reports whether the file is past its expiry but not yet tombstoned.
func (f *File) Expired(now int64) bool {
	return !f.IsDeleted && f.ExpiresAt != nil && now >= *f.ExpiresAt
}
