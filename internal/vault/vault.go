package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FabioDiCeglie/Trim-AI/internal/crypto"
	"github.com/FabioDiCeglie/Trim-AI/internal/domain"
	"github.com/FabioDiCeglie/Trim-AI/internal/repository"
)

// Vault turns raw provider credentials into opaque connection tokens and
// back. It composes the encryption engine with the connection store and
// holds no mutable state of its own, so it is safe for concurrent use.
type Vault struct {
	cipher       *crypto.Cipher
	store        repository.ConnectionStore
	ttl          time.Duration
	storeTimeout time.Duration
	logger       *zap.Logger
}

func New(cipher *crypto.Cipher, store repository.ConnectionStore, ttl, storeTimeout time.Duration, logger *zap.Logger) *Vault {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Vault{cipher: cipher, store: store, ttl: ttl, storeTimeout: storeTimeout, logger: logger}
}

// Connect validates, encrypts, and stores a credential set, returning the
// opaque connection token. Validation failures surface before any
// encryption or I/O happens; the store is written exactly once.
func (v *Vault) Connect(ctx context.Context, provider string, credentials map[string]string) (string, error) {
	record, err := domain.NewCredentialRecord(provider, credentials)
	if err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("serialize credential record: %w", err)
	}

	blob, err := v.cipher.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt credential record: %w", err)
	}

	token := uuid.NewString()
	putCtx, cancel := context.WithTimeout(ctx, v.storeTimeout)
	defer cancel()
	if err := v.store.Put(putCtx, token, blob, v.ttl); err != nil {
		return "", storeError("store connection", err)
	}

	v.logger.Info("connection created",
		zap.String("provider", string(record.Provider)),
		zap.Duration("ttl", v.ttl))

	return token, nil
}

// Resolve recovers the credential record behind a connection token. It
// returns (nil, nil) when the token is unknown, expired, or its blob fails
// the integrity check: callers cannot tell those cases apart, so the
// distinction can never leak to a client. An error is returned only when
// the backing store itself is unavailable or times out.
func (v *Vault) Resolve(ctx context.Context, token string) (*domain.CredentialRecord, error) {
	if token == "" {
		return nil, nil
	}

	getCtx, cancel := context.WithTimeout(ctx, v.storeTimeout)
	defer cancel()
	blob, err := v.store.Get(getCtx, token)
	if err != nil {
		return nil, storeError("load connection", err)
	}
	if blob == nil {
		return nil, nil
	}

	plaintext, err := v.cipher.Decrypt(*blob)
	if err != nil {
		v.logger.Warn("stored blob failed integrity check", zap.Error(err))
		return nil, nil
	}

	var record domain.CredentialRecord
	if err := json.Unmarshal(plaintext, &record); err != nil {
		v.logger.Warn("stored blob decode failed", zap.Error(err))
		return nil, nil
	}

	return &record, nil
}

// storeError classifies a store failure: exceeded deadlines become the
// retryable timeout condition, everything else reads as the store being
// unavailable.
func storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
