// Package store holds the score store backends: a per-player head count
// that game events increment and the leaderboard reads as a snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrUnsupportedScheme is returned by Open for an unknown URL scheme.
	ErrUnsupportedScheme = errors.New("unsupported store scheme")
	// ErrInvalidDelta is returned when an increment is not positive.
	ErrInvalidDelta = errors.New("head count increment must be positive")
	// ErrEmptyPlayer is returned when an increment has no player name.
	ErrEmptyPlayer = errors.New("player name is required")
)

// ScoreStore maps player names to collected head counts.
//
// Snapshot returns a point-in-time copy that callers may iterate freely.
// An empty store yields an empty map and no error. Implementations are safe
// for concurrent Snapshot and Increment calls.
type ScoreStore interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
	Increment(ctx context.Context, player string, delta int64) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the store named by rawURL. The scheme picks the backend:
// memory, postgres, mysql, redis or clickhouse.
func Open(ctx context.Context, rawURL string, logger *zap.Logger) (ScoreStore, error) {
	// Not url.Parse: go-sql-driver DSNs like tcp(host:3306) are not URLs.
	scheme, rest, _ := strings.Cut(rawURL, "://")
	scheme = strings.ToLower(scheme)

	var (
		s   ScoreStore
		err error
	)
	switch scheme {
	case "memory", "mem":
		s = NewMemory()
	case "postgres", "postgresql":
		s, err = OpenPostgres(ctx, rawURL)
	case "mysql":
		s, err = OpenMySQL(ctx, rest)
	case "redis", "rediss":
		s, err = OpenRedis(ctx, rawURL)
	case "clickhouse":
		s, err = OpenClickHouse(ctx, rawURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	if err != nil {
		return nil, err
	}

	logger.Sugar().Infow("Score store opened", "backend", scheme)
	return s, nil
}

func validateIncrement(player string, delta int64) error {
	if player == "" {
		return ErrEmptyPlayer
	}
	if delta <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDelta, delta)
	}
	return nil
}
