// Package crypto seals small secrets (auth tokens) before they reach the
// key-value store.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// sealedPrefix marks values produced by Seal so plain legacy values can still be read.
const sealedPrefix = "enc:v1:"

var ErrTampered = errors.New("crypto: sealed value failed authentication")

// Cipher encrypts with AES-256-GCM. A nil *Cipher passes values through unchanged.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives an AES-256 key from secret with SHA-256. An empty secret
// returns a nil Cipher, which disables encryption.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, nil
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: gcm}, nil
}

// Seal encrypts plainText and returns a prefixed base64 string.
func (c *Cipher) Seal(plainText string) (string, error) {
	if c == nil {
		return plainText, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plainText), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as-is.
func (c *Cipher) Open(value string) (string, error) {
	if len(value) < len(sealedPrefix) || value[:len(sealedPrefix)] != sealedPrefix {
		return value, nil
	}
	if c == nil {
		return "", errors.New("crypto: value is sealed but no encryption key is configured")
	}

	data, err := base64.StdEncoding.DecodeString(value[len(sealedPrefix):])
	if err != nil {
		return "", fmt.Errorf("crypto: invalid sealed value: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrTampered
	}

	nonce, cipherText := data[:nonceSize], data[nonceSize:]
	plain, err := c.aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", ErrTampered
	}
	return string(plain), nil
}
