package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists access logs to Postgres. The whole feature is optional: the
// server runs without a Store when DATABASE_URL is unset.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Store{Pool: pool}, nil
}

// EnsureSchema creates the access_logs table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS access_logs (
            id BIGSERIAL PRIMARY KEY,
            key_hash TEXT NOT NULL,
            endpoint TEXT NOT NULL,
            method TEXT NOT NULL,
            status_code INT NOT NULL,
            response_time_ms INT NOT NULL,
            request_size BIGINT NOT NULL,
            response_size BIGINT NOT NULL,
            intent TEXT NOT NULL DEFAULT '',
            timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `)
	return err
}

func (s *Store) Close() {
	s.Pool.Close()
}
