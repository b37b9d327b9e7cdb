// Package fieldcrypt provides symmetric encryption for individual
// sensitive configuration values. Each value is sealed independently
// with AES-256-GCM under a PBKDF2-derived key using a fresh random
// salt and nonce, and stored as base64(salt || nonce || ciphertext).
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	keySize    = 32 // AES-256
	iterations = 100_000
)

// ErrDecrypt is returned when a stored value cannot be opened, either
// because the passphrase is wrong or the ciphertext is corrupted.
var ErrDecrypt = errors.New("fieldcrypt: cannot decrypt value")

var sensitiveKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)api[_-]?key`),
	regexp.MustCompile(`(?i)access[_-]?token`),
	regexp.MustCompile(`(?i)secret`),
	regexp.MustCompile(`(?i)password`),
	regexp.MustCompile(`(?i)auth`),
	regexp.MustCompile(`(?i)token`),
	regexp.MustCompile(`(?i)credential`),
}

// SensitiveKey reports whether an env key should be encrypted at rest
func SensitiveKey(key string) bool {
	for _, p := range sensitiveKeyPatterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// Cryptor seals and opens individual string values. A cryptor with an
// empty passphrase passes values through unchanged.
type Cryptor struct {
	passphrase []byte
}

// New creates a cryptor keyed by passphrase. An empty passphrase
// yields a disabled, pass-through cryptor.
func New(passphrase string) *Cryptor {
	return &Cryptor{passphrase: []byte(passphrase)}
}

// Enabled reports whether the cryptor actually encrypts
func (c *Cryptor) Enabled() bool {
	return len(c.passphrase) > 0
}

// Encrypt seals value. Empty values and disabled cryptors pass through.
func (c *Cryptor) Encrypt(value string) (string, error) {
	if !c.Enabled() || value == "" {
		return value, nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("fieldcrypt: generate salt: %w", err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("fieldcrypt: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(value), nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a value produced by Encrypt. It returns ErrDecrypt
// (wrapped) when the blob cannot be opened; callers are expected to
// fall back to the stored value in that case.
func (c *Cryptor) Decrypt(value string) (string, error) {
	if !c.Enabled() || value == "" {
		return value, nil
	}

	blob, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	if len(blob) < saltSize {
		return "", fmt.Errorf("%w: blob too short", ErrDecrypt)
	}
	salt := blob[:saltSize]

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	rest := blob[saltSize:]
	if len(rest) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: blob too short", ErrDecrypt)
	}
	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), nil
}

func (c *Cryptor) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.passphrase, salt, iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: create gcm: %w", err)
	}
	return gcm, nil
}
