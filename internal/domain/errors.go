package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the vault, broker, and HTTP boundary.
var (
	// ErrUnsupportedProvider rejects connect requests with an unknown tag.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrIntegrity reports an AEAD authentication failure: the blob was
	// tampered with, decrypted under the wrong key, or corrupted.
	ErrIntegrity = errors.New("ciphertext integrity check failed")

	// ErrKeyImport reports unusable signing-key material (malformed PEM or
	// a non-RSA key). Non-retryable; surfaced as a bad-credential condition.
	ErrKeyImport = errors.New("private key import failed")

	// ErrUpstreamTimeout reports a network call that exceeded its deadline.
	// Callers may retry; this service never does.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrStoreUnavailable reports a failed read or write against the
	// connection store.
	ErrStoreUnavailable = errors.New("connection store unavailable")
)

// MissingFieldsError lists the required credential fields absent from a
// connect request.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing credential fields: " + strings.Join(e.Fields, ", ")
}

// TokenExchangeError reports a token endpoint that answered with an error
// descriptor instead of an access token.
type TokenExchangeError struct {
	Description string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange rejected: %s", e.Description)
}
