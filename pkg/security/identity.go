package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Identity is the node's own persisted device identity. Losing the file
// changes the node's ID and fingerprint as observed by every peer, so it is
// generated exactly once and reused across restarts.
type Identity struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	PublicKey  []byte `json:"public_key"`
	SecretKey  []byte `json:"secret_key"`
}

// LoadOrCreateIdentity reads the identity file at path, creating a fresh
// identity (new ID and keypair) if the file doesn't exist yet.
func LoadOrCreateIdentity(path, name string) (*Identity, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		var id Identity
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("identity file %s is corrupt, %w", path, err)
		}

		if len(id.PublicKey) != 32 || len(id.SecretKey) != 32 {
			return nil, fmt.Errorf("identity file %s holds malformed keys", path)
		}

		return &id, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read identity file, %w", err)
	}

	pub, sec, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	deviceID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate device ID, %w", err)
	}

	id := &Identity{
		DeviceID:   deviceID,
		DeviceName: name,
		PublicKey:  pub[:],
		SecretKey:  sec[:],
	}

	raw, err = json.MarshalIndent(id, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode identity, %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create identity directory, %w", err)
	}

	// The secret key lives in here, keep it owner-only
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write identity file, %w", err)
	}

	return id, nil
}

// Fingerprint returns the node's own public-key fingerprint.
func (i *Identity) Fingerprint() string {
	return Fingerprint(i.PublicKey)
}

// Keys returns the keypair in the fixed-size form nacl/box expects.
func (i *Identity) Keys() (pub, sec *[32]byte) {
	pub, sec = new([32]byte), new([32]byte)
	copy(pub[:], i.PublicKey)
	copy(sec[:], i.SecretKey)
	return pub, sec
}
