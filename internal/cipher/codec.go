// Package cipher encrypts message bodies at rest with AES-256-GCM under a
// single pre-shared key. Every call to Encrypt draws a fresh random nonce,
// which is stored next to the ciphertext as the IV.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/dtroode/chatstation-server/internal/model"
)

// KeySize is the required key length in bytes.
const KeySize = 32

var _ model.Cipher = (*Codec)(nil)

// Codec implements model.Cipher.
type Codec struct {
	aead   cipher.AEAD
	random io.Reader
}

// NewCodec creates a Codec for the given 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid cipher key length: got %d want %d", len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Codec{aead: aead, random: rand.Reader}, nil
}

// Encrypt seals plaintext under a newly generated IV.
func (c *Codec) Encrypt(plaintext []byte) (model.EncryptedBody, error) {
	iv := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.random, iv); err != nil {
		return model.EncryptedBody{}, fmt.Errorf("generate iv: %w", err)
	}

	return model.EncryptedBody{
		IV:         iv,
		CipherText: c.aead.Seal(nil, iv, plaintext, nil),
	}, nil
}

// Decrypt opens body. Malformed input and failed authentication both
// yield model.ErrCorruptCiphertext.
func (c *Codec) Decrypt(body model.EncryptedBody) ([]byte, error) {
	if len(body.IV) != c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: invalid iv length %d", model.ErrCorruptCiphertext, len(body.IV))
	}
	if len(body.CipherText) < c.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", model.ErrCorruptCiphertext)
	}

	plaintext, err := c.aead.Open(nil, body.IV, body.CipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCorruptCiphertext, err)
	}

	return plaintext, nil
}
