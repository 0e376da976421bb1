package model

// APIKey stores only the hash of the presented secret; the plaintext key is
// shown once at mint time and never persisted. Revocation flips IsActive,
// the row itself stays for the audit trail.
type APIKey struct {
	ID          string  `gorm:"primaryKey" json:"id"`
	KeyHash     string  `gorm:"uniqueIndex;not null" json:"-"`
	DeviceID    string  `gorm:"index" json:"device_id"`
	Permissions PermSet `gorm:"type:text" json:"permissions"`

	// Unix second timestamps
	CreatedAt int64  `gorm:"not null" json:"created_at"`
	ExpiresAt *int64 `json:"expires_at,omitzero"`

	IsActive bool `json:"is_active"`
}
