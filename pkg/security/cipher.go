// Package security contains everything related to the protection of stored
// files and device identities: per-file symmetric keys, authenticated
// encryption of file contents, device keypairs and one-way secret hashing.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

const (
	// FileKeyLen is the length of a per-file AES-256 key in bytes.
	FileKeyLen = 32

	// NonceLen is the length of the AES-GCM nonce in bytes.
	NonceLen = 12

	// GCMTagLen is the length of the GCM authentication tag in bytes.
	GCMTagLen = 16

	// MinBlobLen is the minimum valid ciphertext blob length (nonce + tag).
	MinBlobLen = NonceLen + GCMTagLen

	// fingerprintLen is the number of hash bytes kept for a fingerprint.
	// 8 bytes is short enough to compare over the phone and long enough
	// that collisions on a LAN are not a concern.
	fingerprintLen = 8
)

// GenerateFileKey returns a fresh random AES-256 key. Every file gets its
// own key, so a leaked key unlocks exactly one file.
func GenerateFileKey() ([]byte, error) {
	key := make([]byte, FileKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate file key, %w", err)
	}

	return key, nil
}

// Encrypt seals plaintext with AES-256-GCM under key. The returned blob is
// nonce(12B) || ciphertext || tag(16B), so decryption needs only the blob
// and the key. The nonce is random per call; keys are never shared between
// files, so random nonces are safe.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: failed to generate nonce, %v", ErrCrypto, err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. It fails with ErrCrypto on a
// truncated blob, a wrong key or a tampered ciphertext and never returns
// partially decrypted bytes.
func Decrypt(blob, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(blob) < MinBlobLen {
		return nil, fmt.Errorf("%w: ciphertext too short (%d bytes)", ErrCrypto, len(blob))
	}

	plaintext, err := gcm.Open(nil, blob[:NonceLen], blob[NonceLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrCrypto)
	}

	return plaintext, nil
}

// GenerateKeyPair returns a fresh X25519 keypair for device identity and
// device-to-device encryption.
func GenerateKeyPair() (pub, sec *[32]byte, err error) {
	pub, sec, err = box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate keypair, %w", err)
	}

	return pub, sec, nil
}

// EncryptForPeer seals a message for a peer using authenticated public-key
// encryption (nacl/box). The blob is nonce(24B) || boxed message.
func EncryptForPeer(message []byte, peerPub, ownSec *[32]byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: failed to generate nonce, %v", ErrCrypto, err)
	}

	return box.Seal(nonce[:], message, &nonce, peerPub, ownSec), nil
}

// DecryptFromPeer opens a blob produced by EncryptForPeer on the other side.
// Fails closed with ErrCrypto if the blob was not sealed by the peer's
// secret key for our public key.
func DecryptFromPeer(blob []byte, peerPub, ownSec *[32]byte) ([]byte, error) {
	if len(blob) < 24+box.Overhead {
		return nil, fmt.Errorf("%w: peer blob too short (%d bytes)", ErrCrypto, len(blob))
	}

	var nonce [24]byte
	copy(nonce[:], blob[:24])

	message, ok := box.Open(nil, blob[24:], &nonce, peerPub, ownSec)
	if !ok {
		return nil, fmt.Errorf("%w: peer authentication failed", ErrCrypto)
	}

	return message, nil
}

// Fingerprint derives a short, stable, human-comparable identity proof from
// a device public key.
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:fingerprintLen])
}

// HashSecret hashes a bearer secret (API keys) for storage and lookup. The
// hash is deterministic so a presented key can be resolved by its hash;
// secrets are 32 random bytes, not passwords, so a fast hash is the right
// primitive here.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// SecretEqual compares two hash strings in constant time.
func SecretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != FileKeyLen {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrCrypto, FileKeyLen, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	return gcm, nil
}
