package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/FabioDiCeglie/Trim-AI/internal/domain"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Cipher performs authenticated encryption (AES-256-GCM) of opaque payloads
// under a single master key held in memory for the process lifetime.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds the engine from a raw 32-byte master key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random 96-bit nonce. The nonce is
// returned alongside the ciphertext; it is not secret but must never repeat
// under the same key, so it is drawn from crypto/rand on every call.
func (c *Cipher) Encrypt(plaintext []byte) (domain.EncryptedBlob, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return domain.EncryptedBlob{}, fmt.Errorf("generate nonce: %w", err)
	}
	return domain.EncryptedBlob{
		Nonce:      nonce,
		Ciphertext: c.aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Decrypt opens a blob and verifies its authentication tag. Any tampering
// with the nonce or ciphertext yields domain.ErrIntegrity, never wrong
// plaintext.
func (c *Cipher) Decrypt(blob domain.EncryptedBlob) ([]byte, error) {
	if len(blob.Nonce) != c.aead.NonceSize() {
		return nil, domain.ErrIntegrity
	}
	plaintext, err := c.aead.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, domain.ErrIntegrity
	}
	return plaintext, nil
}
