// Package service holds the core domain logic: file lifecycle, device
// trust, API keys and the expiry sweep. Handlers stay thin and call in
// here.
package service

import (
	"errors"
	"fmt"
	"time"

	"landrop/share-api/internal/model"
	"landrop/share-api/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Devices manages the device ledger. Trust defaults are asymmetric on
// purpose: devices explicitly registered via the discovery path start
// untrusted and wait for an admin decision, while devices provisioned from
// anonymous uploads start trusted so their files show up in listings right
// away. That's a trust-on-first-use usability tradeoff carried over from
// the product design, not an invariant.
type Devices struct {
	db     *gorm.DB
	selfID string
}

// NewDevices ensures the ledger holds a trusted record for this node's own
// identity and remembers its ID, since the self record may never be
// deleted.
func NewDevices(db *gorm.DB, id *security.Identity) (*Devices, error) {
	now := time.Now().Unix()

	var self model.Device
	err := db.Where("id = ?", id.DeviceID).First(&self).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up self device, %w", err)
		}

		err = db.Create(&model.Device{
			ID:          id.DeviceID,
			Name:        id.DeviceName,
			IPAddress:   "127.0.0.1",
			Fingerprint: id.Fingerprint(),
			PublicKey:   id.PublicKey,
			IsTrusted:   true,
			LastSeen:    now,
			CreatedAt:   now,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to create self device, %w", err)
		}
	}

	return &Devices{db: db, selfID: id.DeviceID}, nil
}

// SelfID returns the ID of this node's own device record.
func (d *Devices) SelfID() string {
	return d.selfID
}

// Register handles the explicit discovery/registration path. A device
// re-registering with a known public key keeps its record (and its trust
// state); a new one is created untrusted.
func (d *Devices) Register(name, ip string, publicKey []byte) (*model.Device, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: device name can't be empty", ErrValidation)
	}
	if len(publicKey) != 32 {
		return nil, fmt.Errorf("%w: public key must be 32 bytes", ErrValidation)
	}

	now := time.Now().Unix()
	fp := security.Fingerprint(publicKey)

	var existing model.Device
	err := d.db.Where("fingerprint = ?", fp).First(&existing).Error
	if err == nil {
		// Re-sighting updates where we saw the device, never its trust
		err = d.db.
			Model(model.Device{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"name":       name,
				"ip_address": ip,
				"last_seen":  now,
			}).
			Error
		if err != nil {
			return nil, fmt.Errorf("failed to update device, %w", err)
		}

		existing.Name = name
		existing.IPAddress = ip
		existing.LastSeen = now
		return &existing, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up device, %w", err)
	}

	deviceID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate device ID, %w", err)
	}

	dev := &model.Device{
		ID:          deviceID,
		Name:        name,
		IPAddress:   ip,
		Fingerprint: fp,
		PublicKey:   publicKey,
		IsTrusted:   false,
		LastSeen:    now,
		CreatedAt:   now,
	}

	if err := d.db.Create(dev).Error; err != nil {
		return nil, fmt.Errorf("failed to create device, %w", err)
	}

	return dev, nil
}

// SightAnonymous provisions (or re-sights) a device purely from inbound
// upload traffic, keyed by display name and source address. These start
// trusted (see the package note on the asymmetry).
func (d *Devices) SightAnonymous(name, ip string) (*model.Device, error) {
	if name == "" {
		name = "guest-" + ip
	}

	now := time.Now().Unix()

	var existing model.Device
	err := d.db.Where("name = ? AND ip_address = ?", name, ip).First(&existing).Error
	if err == nil {
		err = d.db.
			Model(model.Device{}).
			Where("id = ?", existing.ID).
			Update("last_seen", now).
			Error
		if err != nil {
			return nil, fmt.Errorf("failed to update device, %w", err)
		}

		existing.LastSeen = now
		return &existing, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up device, %w", err)
	}

	deviceID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate device ID, %w", err)
	}

	dev := &model.Device{
		ID:        deviceID,
		Name:      name,
		IPAddress: ip,
		IsTrusted: true,
		LastSeen:  now,
		CreatedAt: now,
	}

	if err := d.db.Create(dev).Error; err != nil {
		return nil, fmt.Errorf("failed to create device, %w", err)
	}

	return dev, nil
}

// Touch records a sighting of a known device ID (an upload naming it).
func (d *Devices) Touch(id, ip string) (*model.Device, error) {
	var dev model.Device
	err := d.db.Where("id = ?", id).First(&dev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to look up device, %w", err)
	}

	now := time.Now().Unix()
	err = d.db.
		Model(model.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ip_address": ip,
			"last_seen":  now,
		}).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to update device, %w", err)
	}

	dev.IPAddress = ip
	dev.LastSeen = now
	return &dev, nil
}

// List returns every known device, most recently seen first.
func (d *Devices) List() ([]model.Device, error) {
	var devices []model.Device
	err := d.db.Order("last_seen DESC").Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices, %w", err)
	}

	return devices, nil
}

// Rename changes a device's display name.
func (d *Devices) Rename(id, name string) error {
	if name == "" {
		return fmt.Errorf("%w: device name can't be empty", ErrValidation)
	}

	return d.update(id, map[string]any{"name": name})
}

// SetTrusted flips the trust flag. Toggling never touches the device's
// files or its ID.
func (d *Devices) SetTrusted(id string, trusted bool) error {
	return d.update(id, map[string]any{"is_trusted": trusted})
}

// Delete removes a device record. The self record can never be deleted.
func (d *Devices) Delete(id string) error {
	if id == d.selfID {
		return fmt.Errorf("%w: can't delete this node's own device", ErrValidation)
	}

	res := d.db.Where("id = ?", id).Delete(model.Device{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete device, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (d *Devices) update(id string, fields map[string]any) error {
	res := d.db.Model(model.Device{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update device, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
