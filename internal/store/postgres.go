package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS head_counts (
	player_name TEXT PRIMARY KEY,
	head_count  BIGINT NOT NULL DEFAULT 0 CHECK (head_count >= 0)
)`

// PgPool is the subset of *pgxpool.Pool the Postgres store uses.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Postgres keeps head counts in a head_counts table.
type Postgres struct {
	pool  PgPool
	close func()
}

// OpenPostgres connects a pool and ensures the schema exists.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := NewPostgres(pool)
	s.close = pool.Close
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres wraps an existing pool. Close does not close it.
func NewPostgres(pool PgPool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create head_counts table: %w", err)
	}
	return nil
}

func (s *Postgres) Snapshot(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, "SELECT player_name, head_count FROM head_counts")
	if err != nil {
		return nil, fmt.Errorf("query head counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan head count: %w", err)
		}
		out[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate head counts: %w", err)
	}
	return out, nil
}

func (s *Postgres) Increment(ctx context.Context, player string, delta int64) error {
	if err := validateIncrement(player, delta); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO head_counts (player_name, head_count) VALUES ($1, $2)
		ON CONFLICT (player_name) DO UPDATE SET head_count = head_counts.head_count + EXCLUDED.head_count`,
		player, delta)
	if err != nil {
		return fmt.Errorf("increment head count for %s: %w", player, err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
