package config_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FabioDiCeglie/Trim-AI/internal/config"
)

func TestLoadRequiresMasterKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/trim")
	t.Setenv("ENCRYPTION_KEY", "")
	t.Setenv("ENCRYPTION_PASSPHRASE", "")

	_, err := config.Load()
	require.ErrorContains(t, err, "ENCRYPTION_KEY")
}

func TestLoadDecodesMasterKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/trim")
	key := make([]byte, 32)
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Len(t, cfg.EncryptionKey, 32)
	require.Equal(t, 30*24*time.Hour, cfg.ConnectionTTL)
	require.Equal(t, "https://oauth2.googleapis.com/token", cfg.GCPTokenURL)
}

func TestLoadRejectsShortKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/trim")
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(make([]byte, 16)))

	_, err := config.Load()
	require.ErrorContains(t, err, "32 bytes")
}

func TestLoadDerivesKeyFromPassphrase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/trim")
	t.Setenv("ENCRYPTION_PASSPHRASE", "correct horse battery staple")
	t.Setenv("ENCRYPTION_SALT", "trim-dev")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Len(t, cfg.EncryptionKey, 32)

	again, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, cfg.EncryptionKey, again.EncryptionKey, "derivation must be deterministic")
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(make([]byte, 32)))

	_, err := config.Load()
	require.ErrorContains(t, err, "DATABASE_URL")
}
