// Package secrets encrypts small secrets (TOTP seeds) at rest with AES-256-GCM.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Box seals and opens secrets with a single symmetric key.
// The key must be supplied externally; there is no built-in fallback.
type Box struct {
	aead cipher.AEAD
}

// NewBox builds a Box from a hex-encoded 32-byte key.
func NewBox(hexKey string) (*Box, error) {
	if hexKey == "" {
		return nil, errors.New("encryption key is required")
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Box{aead: aead}, nil
}

// Seal encrypts plaintext and returns "hex(nonce):hex(ciphertext)".
func (b *Box) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := b.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Open decrypts a blob produced by Seal.
func (b *Box) Open(blob string) (string, error) {
	nonceHex, sealedHex, ok := strings.Cut(blob, ":")
	if !ok {
		return "", errors.New("malformed encrypted blob")
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != b.aead.NonceSize() {
		return "", errors.New("malformed nonce")
	}

	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", errors.New("malformed ciphertext")
	}

	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}
