package crypto_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FabioDiCeglie/Trim-AI/internal/crypto"
	"github.com/FabioDiCeglie/Trim-AI/internal/domain"
)

func newTestCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	key := make([]byte, crypto.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	c, err := crypto.NewCipher(key)
	require.NoError(t, err)
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)
	plaintext := []byte(`{"provider":"gcp","credentials":{"project_id":"acme"}}`)

	blob, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	require.Len(t, blob.Nonce, 12)
	require.NotEmpty(t, blob.Ciphertext)

	decrypted, err := c.Decrypt(blob)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c := newTestCipher(t)
	plaintext := []byte("same plaintext twice")

	first, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	second, err := c.Encrypt(plaintext)
	require.NoError(t, err)

	require.False(t, bytes.Equal(first.Nonce, second.Nonce))
	require.False(t, bytes.Equal(first.Ciphertext, second.Ciphertext))
}

func TestDecryptDetectsTampering(t *testing.T) {
	c := newTestCipher(t)
	blob, err := c.Encrypt([]byte("secret material"))
	require.NoError(t, err)

	for i := range blob.Ciphertext {
		tampered := domain.EncryptedBlob{
			Nonce:      append([]byte(nil), blob.Nonce...),
			Ciphertext: append([]byte(nil), blob.Ciphertext...),
		}
		tampered.Ciphertext[i] ^= 0x01
		_, err := c.Decrypt(tampered)
		require.ErrorIs(t, err, domain.ErrIntegrity, "flipped bit in ciphertext byte %d", i)
	}

	for i := range blob.Nonce {
		tampered := domain.EncryptedBlob{
			Nonce:      append([]byte(nil), blob.Nonce...),
			Ciphertext: append([]byte(nil), blob.Ciphertext...),
		}
		tampered.Nonce[i] ^= 0x01
		_, err := c.Decrypt(tampered)
		require.ErrorIs(t, err, domain.ErrIntegrity, "flipped bit in nonce byte %d", i)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	first := newTestCipher(t)
	second := newTestCipher(t)

	blob, err := first.Encrypt([]byte("secret material"))
	require.NoError(t, err)

	_, err = second.Decrypt(blob)
	require.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestDecryptRejectsBadNonceLength(t *testing.T) {
	c := newTestCipher(t)
	_, err := c.Decrypt(domain.EncryptedBlob{Nonce: []byte("short"), Ciphertext: []byte("junk")})
	require.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestNewCipherRejectsBadKeySize(t *testing.T) {
	_, err := crypto.NewCipher(make([]byte, 16))
	require.Error(t, err)
}
