package validators

import (
	"encoding/base64"
	"errors"
)

var (
	ErrNoDeviceName  = errors.New("device name can't be empty")
	ErrNameTooLong   = errors.New("device name is too long")
	ErrBadPublicKey  = errors.New("public key must be 32 base64-encoded bytes")
	ErrNoPermissions = errors.New("no permissions provided")
)

const maxDeviceNameSize = 64

// DeviceNameValidator checks a display name for registration or rename.
func DeviceNameValidator(name string) error {
	if name == "" {
		return ErrNoDeviceName
	}

	if len(name) > maxDeviceNameSize {
		return ErrNameTooLong
	}

	return nil
}

// PublicKeyValidator decodes and checks a device public key sent as base64.
func PublicKeyValidator(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != 32 {
		return nil, ErrBadPublicKey
	}

	return raw, nil
}
