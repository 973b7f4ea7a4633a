package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"memory", "memory://", nil},
		{"memory short", "mem://", nil},
		{"unknown scheme", "mongodb://localhost/heads", ErrUnsupportedScheme},
		{"no scheme", "heads.db", ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.url, zap.NewNop())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open(%q) error = %v, want %v", tt.url, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open(%q) error = %v", tt.url, err)
			}
			defer s.Close()
			if _, ok := s.(*Memory); !ok {
				t.Errorf("Open(%q) = %T, want *Memory", tt.url, s)
			}
		})
	}
}

func TestMemory_IncrementAndSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	snap, err := m.Snapshot(ctx)
	if err != nil || len(snap) != 0 {
		t.Fatalf("empty Snapshot() = %v, %v", snap, err)
	}

	m.Increment(ctx, "Alice", 2)
	m.Increment(ctx, "Alice", 3)
	m.Increment(ctx, "Bob", 1)

	snap, _ = m.Snapshot(ctx)
	if snap["Alice"] != 5 || snap["Bob"] != 1 || len(snap) != 2 {
		t.Errorf("Snapshot() = %v", snap)
	}

	// The snapshot is a copy.
	snap["Alice"] = 100
	again, _ := m.Snapshot(ctx)
	if again["Alice"] != 5 {
		t.Errorf("mutating a snapshot changed the store: Alice = %d", again["Alice"])
	}
}

func TestMemory_InvalidIncrement(t *testing.T) {
	m := NewMemory()
	if err := m.Increment(context.Background(), "Alice", 0); !errors.Is(err, ErrInvalidDelta) {
		t.Errorf("Increment(delta=0) error = %v, want ErrInvalidDelta", err)
	}
	if err := m.Increment(context.Background(), "", 1); !errors.Is(err, ErrEmptyPlayer) {
		t.Errorf("Increment(player=\"\") error = %v, want ErrEmptyPlayer", err)
	}
}

func TestMemory_ConcurrentReadWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Increment(ctx, fmt.Sprintf("player-%d", w), 1)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				snap, _ := m.Snapshot(ctx)
				for range snap {
				}
			}
		}()
	}
	wg.Wait()

	snap, _ := m.Snapshot(ctx)
	for w := 0; w < 8; w++ {
		if got := snap[fmt.Sprintf("player-%d", w)]; got != 100 {
			t.Errorf("player-%d = %d, want 100", w, got)
		}
	}
}

func TestPostgres_Snapshot(t *testing.T) {
	rows := &MockPgRows{rows: []scoreRow{{"Alice", 42}, {"Bob", 17}}}
	pool := &MockPgPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			if !strings.Contains(sql, "FROM head_counts") {
				t.Errorf("unexpected query %q", sql)
			}
			return rows, nil
		},
	}

	snap, err := NewPostgres(pool).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap["Alice"] != 42 || snap["Bob"] != 17 {
		t.Errorf("Snapshot() = %v", snap)
	}
	if !rows.closed {
		t.Error("rows were not closed")
	}
}

func TestPostgres_QueryError(t *testing.T) {
	boom := errors.New("pool exhausted")
	pool := &MockPgPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return nil, boom
		},
	}
	if _, err := NewPostgres(pool).Snapshot(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Snapshot() error = %v, want %v", err, boom)
	}
}

func TestPostgres_IncrementUpserts(t *testing.T) {
	pool := &MockPgPool{}
	s := NewPostgres(pool)

	if err := s.Increment(context.Background(), "Alice", 3); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if len(pool.ExecCalls) != 1 || !strings.Contains(pool.ExecCalls[0], "ON CONFLICT (player_name)") {
		t.Fatalf("Exec calls = %v", pool.ExecCalls)
	}
	if args := pool.ExecArgs[0]; args[0] != "Alice" || args[1] != int64(3) {
		t.Errorf("Exec args = %v", args)
	}

	if err := s.Increment(context.Background(), "Alice", -1); !errors.Is(err, ErrInvalidDelta) {
		t.Errorf("Increment(-1) error = %v", err)
	}
	if len(pool.ExecCalls) != 1 {
		t.Error("invalid increment reached the database")
	}
}

func TestRedis_SnapshotAndIncrement(t *testing.T) {
	client := &MockRedisClient{Hash: map[string]string{"Alice": "4"}}
	s := NewRedis(client, "")

	if err := s.Increment(context.Background(), "Bob", 2); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	s.Increment(context.Background(), "Alice", 1)

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap["Alice"] != 5 || snap["Bob"] != 2 {
		t.Errorf("Snapshot() = %v", snap)
	}
	for _, k := range client.Keys {
		if k != DefaultRedisKey {
			t.Errorf("used key %q, want %q", k, DefaultRedisKey)
		}
	}
}

func TestRedis_BadValue(t *testing.T) {
	client := &MockRedisClient{Hash: map[string]string{"Alice": "lots"}}
	if _, err := NewRedis(client, "heads").Snapshot(context.Background()); err == nil {
		t.Error("Snapshot() with non-integer count should fail")
	}
}

func TestRedis_Error(t *testing.T) {
	boom := errors.New("READONLY")
	client := &MockRedisClient{Hash: map[string]string{}, Err: boom}
	s := NewRedis(client, "heads")
	if _, err := s.Snapshot(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Snapshot() error = %v, want %v", err, boom)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Ping() error = %v, want %v", err, boom)
	}
}

func TestClickHouse_Snapshot(t *testing.T) {
	conn := &MockCHConn{
		QueryFunc: func(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
			return &MockCHRows{rows: []scoreRow{{"Alice", 7}, {"Dee", 1}}}, nil
		},
	}

	snap, err := NewClickHouse(conn).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap) != 2 || snap["Alice"] != 7 || snap["Dee"] != 1 {
		t.Errorf("Snapshot() = %v", snap)
	}
	if !strings.Contains(conn.CapturedQuery, "GROUP BY player_name") {
		t.Errorf("query does not aggregate per player:\n%s", conn.CapturedQuery)
	}
}

func TestClickHouse_IncrementAppends(t *testing.T) {
	conn := &MockCHConn{}
	s := NewClickHouse(conn)

	if err := s.Increment(context.Background(), "Alice", 2); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if !strings.HasPrefix(conn.CapturedQuery, "INSERT INTO head_drops") {
		t.Errorf("query = %q", conn.CapturedQuery)
	}
	if conn.CapturedArgs[0] != "Alice" || conn.CapturedArgs[1] != int64(2) {
		t.Errorf("args = %v", conn.CapturedArgs)
	}
}

func newMockMySQL(conn *MockSQLConn) *MySQL {
	return NewMySQL(sql.OpenDB(&MockSQLConnector{Conn: conn}))
}

func TestMySQL_Snapshot(t *testing.T) {
	conn := &MockSQLConn{rows: []scoreRow{{"Alice", 12}, {"Bob", 3}}}
	s := newMockMySQL(conn)
	defer s.Close()

	got, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(got) != 2 || got["Alice"] != 12 || got["Bob"] != 3 {
		t.Errorf("Snapshot() = %v", got)
	}
}

func TestMySQL_QueryError(t *testing.T) {
	dbErr := errors.New("server has gone away")
	s := newMockMySQL(&MockSQLConn{queryErr: dbErr})
	defer s.Close()

	if _, err := s.Snapshot(context.Background()); !errors.Is(err, dbErr) {
		t.Errorf("Snapshot() error = %v, want wrapped %v", err, dbErr)
	}
}

func TestMySQL_IncrementUpserts(t *testing.T) {
	conn := &MockSQLConn{}
	s := newMockMySQL(conn)
	defer s.Close()

	if err := s.Increment(context.Background(), "Alice", 3); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if len(conn.execSQL) != 1 {
		t.Fatalf("exec count = %d, want 1", len(conn.execSQL))
	}
	if !strings.Contains(conn.execSQL[0], "ON DUPLICATE KEY UPDATE") {
		t.Errorf("exec sql = %q, want upsert", conn.execSQL[0])
	}
	args := conn.execArgs[0]
	if len(args) != 2 || args[0] != "Alice" || args[1] != int64(3) {
		t.Errorf("exec args = %v, want [Alice 3]", args)
	}

	if err := s.Increment(context.Background(), "", 1); !errors.Is(err, ErrEmptyPlayer) {
		t.Errorf("Increment(empty) error = %v, want ErrEmptyPlayer", err)
	}
	if len(conn.execSQL) != 1 {
		t.Errorf("invalid increment reached the database")
	}
}

func TestMySQL_MigrateAndPing(t *testing.T) {
	conn := &MockSQLConn{}
	s := newMockMySQL(conn)
	defer s.Close()

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if len(conn.execSQL) != 1 || !strings.Contains(conn.execSQL[0], "CREATE TABLE IF NOT EXISTS head_counts") {
		t.Errorf("Migrate() sql = %v", conn.execSQL)
	}

	conn.pingErr = errors.New("down")
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() error = nil, want error")
	}
}
