package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// Config contains runtime configuration values.
type Config struct {
	Environment          string
	HTTPPort             string
	DatabaseURL          string
	EncryptionKey        []byte
	ConnectionTTL        time.Duration
	UpstreamTimeout      time.Duration
	StoreTimeout         time.Duration
	StoreSweepInterval   time.Duration
	GCPTokenURL          string
	ServiceName          string
	TelemetryEndpoint    string
	TelemetryInsecure    bool
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

const pbkdf2Iterations = 100_000

// Load reads configuration from environment variables with sane defaults.
// A usable 32-byte master key and a database URL are hard requirements;
// missing either is a fatal startup condition.
func Load() (Config, error) {
	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8787"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		ConnectionTTL:        getDuration("CONNECTION_TTL", 30*24*time.Hour),
		UpstreamTimeout:      getDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		StoreTimeout:         getDuration("STORE_TIMEOUT", 5*time.Second),
		StoreSweepInterval:   getDuration("STORE_SWEEP_INTERVAL", time.Hour),
		GCPTokenURL:          getEnv("GCP_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		ServiceName:          getEnv("SERVICE_NAME", "trim-api"),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	key, err := loadMasterKey()
	if err != nil {
		return Config{}, err
	}
	cfg.EncryptionKey = key

	return cfg, nil
}

// loadMasterKey decodes ENCRYPTION_KEY (base64, 32 bytes) or derives a key
// from ENCRYPTION_PASSPHRASE + ENCRYPTION_SALT via PBKDF2-SHA256.
func loadMasterKey() ([]byte, error) {
	if encoded := os.Getenv("ENCRYPTION_KEY"); encoded != "" {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
		}
		return key, nil
	}

	passphrase := os.Getenv("ENCRYPTION_PASSPHRASE")
	salt := os.Getenv("ENCRYPTION_SALT")
	if passphrase == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY or ENCRYPTION_PASSPHRASE is required")
	}
	if salt == "" {
		return nil, fmt.Errorf("ENCRYPTION_SALT is required with ENCRYPTION_PASSPHRASE")
	}
	return pbkdf2.Key([]byte(passphrase), []byte(salt), pbkdf2Iterations, 32, sha256.New), nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
