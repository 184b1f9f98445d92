package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FabioDiCeglie/Trim-AI/internal/domain"
)

// ConnectionStore maps opaque connection tokens to encrypted credential
// blobs with a time-to-live. Get returns (nil, nil) for unknown or expired
// tokens; that is a normal outcome, not an error.
type ConnectionStore interface {
	Put(ctx context.Context, token string, blob domain.EncryptedBlob, ttl time.Duration) error
	Get(ctx context.Context, token string) (*domain.EncryptedBlob, error)
}

// Compile-time interface assertion.
var _ ConnectionStore = (*PostgresConnectionStore)(nil)

// PostgresConnectionStore implements ConnectionStore on a single table.
// Expiry is enforced on read; Sweep removes dead rows in the background.
type PostgresConnectionStore struct {
	pool *pgxpool.Pool
}

func NewPostgresConnectionStore(pool *pgxpool.Pool) *PostgresConnectionStore {
	return &PostgresConnectionStore{pool: pool}
}

// EnsureSchema creates the connections table when missing.
func (s *PostgresConnectionStore) EnsureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS connections (
		token      TEXT PRIMARY KEY,
		blob       TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure connections schema: %w", err)
	}
	return nil
}

func (s *PostgresConnectionStore) Put(ctx context.Context, token string, blob domain.EncryptedBlob, ttl time.Duration) error {
	encoded, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("encode blob: %w", err)
	}
	const query = `INSERT INTO connections (token, blob, expires_at) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, query, token, string(encoded), time.Now().Add(ttl)); err != nil {
		return fmt.Errorf("put connection: %w", err)
	}
	return nil
}

func (s *PostgresConnectionStore) Get(ctx context.Context, token string) (*domain.EncryptedBlob, error) {
	const query = `SELECT blob FROM connections WHERE token = $1 AND expires_at > now()`
	var encoded string
	err := s.pool.QueryRow(ctx, query, token).Scan(&encoded)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	var blob domain.EncryptedBlob
	if err := json.Unmarshal([]byte(encoded), &blob); err != nil {
		return nil, fmt.Errorf("decode blob: %w", err)
	}
	return &blob, nil
}

// Sweep deletes expired rows and reports how many were removed.
func (s *PostgresConnectionStore) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM connections WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("sweep connections: %w", err)
	}
	return tag.RowsAffected(), nil
}
