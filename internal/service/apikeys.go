package service

import (
	"errors"
	"fmt"
	"time"

	"landrop/share-api/internal/model"
	"landrop/share-api/pkg/security"
	"landrop/share-api/pkg/util"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const keySecretBytes = 32

// APIKeys is the access control gate's key store. Secrets are shown once at
// mint time; the ledger only ever holds their hash, and revocation flips
// IsActive so the audit trail stays intact.
type APIKeys struct {
	db *gorm.DB
}

func NewAPIKeys(db *gorm.DB) *APIKeys {
	return &APIKeys{db: db}
}

type MintOpts struct {
	DeviceID    string
	Permissions model.PermSet

	// nil means the key never expires
	ExpiresAt *int64
}

// Mint creates a key and returns the plaintext secret exactly once.
func (a *APIKeys) Mint(o *MintOpts) (string, *model.APIKey, error) {
	if o == nil || o.DeviceID == "" {
		return "", nil, fmt.Errorf("%w: no device ID provided", ErrValidation)
	}

	if !o.Permissions.Valid() {
		return "", nil, fmt.Errorf("%w: invalid permission set", ErrValidation)
	}

	secret, err := util.GenerateToken(keySecretBytes)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key secret, %w", err)
	}

	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key ID, %w", err)
	}

	key := &model.APIKey{
		ID:          id,
		KeyHash:     security.HashSecret(secret),
		DeviceID:    o.DeviceID,
		Permissions: o.Permissions,
		CreatedAt:   time.Now().Unix(),
		ExpiresAt:   o.ExpiresAt,
		IsActive:    true,
	}

	if err := a.db.Create(key).Error; err != nil {
		return "", nil, fmt.Errorf("failed to save API key, %w", err)
	}

	return secret, key, nil
}

// Authenticate resolves a presented secret to an active, unexpired key.
// Every miss is the same ErrAuth; the gate never explains which check
// failed.
func (a *APIKeys) Authenticate(presented string) (*model.APIKey, error) {
	if presented == "" {
		return nil, ErrAuth
	}

	var key model.APIKey
	err := a.db.
		Where("key_hash = ? AND is_active = ?", security.HashSecret(presented), true).
		First(&key).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuth
		}

		return nil, fmt.Errorf("failed to look up API key, %w", err)
	}

	if key.ExpiresAt != nil && time.Now().Unix() >= *key.ExpiresAt {
		return nil, ErrAuth
	}

	return &key, nil
}

// Revoke deactivates a key. The row stays for auditing.
func (a *APIKeys) Revoke(id string) error {
	res := a.db.
		Model(model.APIKey{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to revoke API key, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns every key record, hashes included only in the struct, never
// serialized (KeyHash is json:"-").
func (a *APIKeys) List() ([]model.APIKey, error) {
	var keys []model.APIKey
	err := a.db.Order("created_at DESC").Find(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys, %w", err)
	}

	return keys, nil
}

// Bootstrap mints an admin key for the self device when no active key
// exists at all, and prints the secret once so the operator can take over.
// Subsequent startups are a no-op.
func (a *APIKeys) Bootstrap(selfDeviceID string) error {
	var count int64
	err := a.db.Model(model.APIKey{}).Where("is_active = ?", true).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count API keys, %w", err)
	}

	if count > 0 {
		return nil
	}

	secret, _, err := a.Mint(&MintOpts{
		DeviceID:    selfDeviceID,
		Permissions: model.PermSet{model.PermAdmin},
	})
	if err != nil {
		return err
	}

	fmt.Println("No active API keys found, a bootstrap admin key has been created.\nStore it now, it won't be shown again:\n\n" + secret + "\n")
	zap.L().Info("Bootstrap admin key minted", zap.String("device_id", selfDeviceID))

	return nil
}
