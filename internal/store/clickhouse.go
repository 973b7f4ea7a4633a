package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouse records every drop as a row and sums per player on read,
// so increments never update in place.
const clickHouseSchema = `
CREATE TABLE IF NOT EXISTS head_drops (
	player_name String,
	heads       Int64,
	dropped_at  DateTime
) ENGINE = MergeTree
ORDER BY (player_name, dropped_at)`

type ClickHouse struct {
	conn driver.Conn
	now  func() time.Time
}

// OpenClickHouse connects using a clickhouse:// DSN and ensures the table exists.
func OpenClickHouse(ctx context.Context, dsn string) (*ClickHouse, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	if err := conn.Exec(ctx, clickHouseSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create head_drops table: %w", err)
	}
	return NewClickHouse(conn), nil
}

func NewClickHouse(conn driver.Conn) *ClickHouse {
	return &ClickHouse{conn: conn, now: time.Now}
}

func (s *ClickHouse) Snapshot(ctx context.Context) (map[string]int64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT player_name, toInt64(sum(heads)) AS heads
		FROM head_drops
		GROUP BY player_name`)
	if err != nil {
		return nil, fmt.Errorf("query head drops: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var heads int64
		if err := rows.Scan(&name, &heads); err != nil {
			return nil, fmt.Errorf("scan head drops: %w", err)
		}
		out[name] = heads
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate head drops: %w", err)
	}
	return out, nil
}

func (s *ClickHouse) Increment(ctx context.Context, player string, delta int64) error {
	if err := validateIncrement(player, delta); err != nil {
		return err
	}
	err := s.conn.Exec(ctx,
		"INSERT INTO head_drops (player_name, heads, dropped_at) VALUES (?, ?, ?)",
		player, delta, s.now())
	if err != nil {
		return fmt.Errorf("record head drop for %s: %w", player, err)
	}
	return nil
}

func (s *ClickHouse) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *ClickHouse) Close() error {
	return s.conn.Close()
}
