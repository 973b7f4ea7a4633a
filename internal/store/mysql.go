package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS head_counts (
	player_name VARCHAR(64) NOT NULL PRIMARY KEY,
	head_count  BIGINT UNSIGNED NOT NULL DEFAULT 0
) CHARACTER SET utf8mb4`

// MySQL keeps head counts in a head_counts table.
type MySQL struct {
	db *sql.DB
}

// OpenMySQL connects with a go-sql-driver DSN such as
// user:pass@tcp(host:3306)/headdrop and ensures the schema exists.
func OpenMySQL(ctx context.Context, dsn string) (*MySQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := NewMySQL(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewMySQL wraps an open database handle. Close closes it.
func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db}
}

func (s *MySQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, mysqlSchema); err != nil {
		return fmt.Errorf("create head_counts table: %w", err)
	}
	return nil
}

func (s *MySQL) Snapshot(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT player_name, head_count FROM head_counts")
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

func (s *MySQL) Increment(ctx context.Context, player string, delta int64) error {
	if err := validateIncrement(player, delta); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO head_counts (player_name, head_count) VALUES (?, ?) ON DUPLICATE KEY UPDATE head_count = head_count + VALUES(head_count)",
		player, delta)
	if err != nil {
		return fmt.Errorf("increment head count for %s: %w", player, err)
	}
	return nil
}

func (s *MySQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *MySQL) Close() error {
	return s.db.Close()
}
