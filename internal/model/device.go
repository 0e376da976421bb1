package model

// Device is one network participant. The fingerprint is derived from the
// device public key and survives name and IP changes; trust is a manual
// admin decision except for anonymous-upload devices (see service.Devices).
type Device struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `json:"name"`
	IPAddress   string `json:"ip_address"`
	Fingerprint string `gorm:"index" json:"fingerprint"`
	PublicKey   []byte `json:"-"`
	IsTrusted   bool   `json:"is_trusted"`

	// Unix second timestamps
	LastSeen  int64 `json:"last_seen"`
	CreatedAt int64 `json:"created_at"`
}
