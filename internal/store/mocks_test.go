package store

import (
	"context"
	sqldriver "database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

type scoreRow struct {
	name  string
	count int64
}

func scanRow(row scoreRow, dest ...any) error {
	if len(dest) != 2 {
		return fmt.Errorf("expected 2 scan targets, got %d", len(dest))
	}
	*dest[0].(*string) = row.name
	*dest[1].(*int64) = row.count
	return nil
}

// MockPgRows iterates over fixed rows.
type MockPgRows struct {
	pgx.Rows
	rows   []scoreRow
	pos    int
	closed bool
}

func (m *MockPgRows) Next() bool {
	if m.pos >= len(m.rows) {
		return false
	}
	m.pos++
	return true
}
func (m *MockPgRows) Scan(dest ...any) error { return scanRow(m.rows[m.pos-1], dest...) }
func (m *MockPgRows) Close()                 { m.closed = true }
func (m *MockPgRows) Err() error             { return nil }

type MockPgPool struct {
	QueryFunc func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	ExecCalls []string
	ExecArgs  [][]any
	ExecErr   error
	PingErr   error
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, args...)
	}
	return &MockPgRows{}, nil
}

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.ExecCalls = append(m.ExecCalls, sql)
	m.ExecArgs = append(m.ExecArgs, args)
	return pgconn.CommandTag{}, m.ExecErr
}

func (m *MockPgPool) Ping(ctx context.Context) error { return m.PingErr }

// MockRedisClient keeps a hash in memory.
type MockRedisClient struct {
	Hash map[string]string
	Err  error
	Keys []string
}

func (m *MockRedisClient) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	m.Keys = append(m.Keys, key)
	if m.Err != nil {
		return redis.NewMapStringStringResult(nil, m.Err)
	}
	out := make(map[string]string, len(m.Hash))
	for k, v := range m.Hash {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (m *MockRedisClient) HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd {
	m.Keys = append(m.Keys, key)
	if m.Err != nil {
		return redis.NewIntResult(0, m.Err)
	}
	var cur int64
	fmt.Sscan(m.Hash[field], &cur)
	cur += incr
	m.Hash[field] = fmt.Sprint(cur)
	return redis.NewIntResult(cur, nil)
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", m.Err)
}

// MockCHRows iterates over fixed rows.
type MockCHRows struct {
	driver.Rows
	rows []scoreRow
	pos  int
}

func (m *MockCHRows) Next() bool {
	if m.pos >= len(m.rows) {
		return false
	}
	m.pos++
	return true
}
func (m *MockCHRows) Scan(dest ...interface{}) error { return scanRow(m.rows[m.pos-1], dest...) }
func (m *MockCHRows) Close() error                   { return nil }
func (m *MockCHRows) Err() error                     { return nil }

type MockCHConn struct {
	driver.Conn
	QueryFunc     func(ctx context.Context, query string, args ...interface{}) (driver.Rows, error)
	CapturedQuery string
	CapturedArgs  []interface{}
	ExecErr       error
}

func (m *MockCHConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	m.CapturedQuery = query
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, args...)
	}
	return &MockCHRows{}, nil
}

func (m *MockCHConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	m.CapturedQuery = query
	m.CapturedArgs = args
	return m.ExecErr
}

func (m *MockCHConn) Ping(ctx context.Context) error { return nil }
func (m *MockCHConn) Close() error                   { return nil }

// MockSQLConnector hands database/sql a MockSQLConn for every connection.
type MockSQLConnector struct {
	Conn *MockSQLConn
}

func (c *MockSQLConnector) Connect(ctx context.Context) (sqldriver.Conn, error) {
	return c.Conn, nil
}

func (c *MockSQLConnector) Driver() sqldriver.Driver { return mockSQLDriver{} }

type mockSQLDriver struct{}

func (mockSQLDriver) Open(name string) (sqldriver.Conn, error) {
	return nil, errors.New("open through MockSQLConnector")
}

// MockSQLConn answers queries with fixed rows and records execs.
type MockSQLConn struct {
	mu       sync.Mutex
	rows     []scoreRow
	queryErr error
	execErr  error
	pingErr  error
	execSQL  []string
	execArgs [][]any
	querySQL []string
}

func (c *MockSQLConn) Prepare(query string) (sqldriver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *MockSQLConn) Close() error { return nil }

func (c *MockSQLConn) Begin() (sqldriver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *MockSQLConn) Ping(ctx context.Context) error { return c.pingErr }

func (c *MockSQLConn) ExecContext(ctx context.Context, query string, args []sqldriver.NamedValue) (sqldriver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	values := make([]any, len(args))
	for i, a := range args {
		values[i] = a.Value
	}
	c.execSQL = append(c.execSQL, query)
	c.execArgs = append(c.execArgs, values)
	if c.execErr != nil {
		return nil, c.execErr
	}
	return sqldriver.RowsAffected(1), nil
}

func (c *MockSQLConn) QueryContext(ctx context.Context, query string, args []sqldriver.NamedValue) (sqldriver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.querySQL = append(c.querySQL, query)
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return &mockSQLRows{rows: c.rows}, nil
}

type mockSQLRows struct {
	rows []scoreRow
	idx  int
}

func (r *mockSQLRows) Columns() []string { return []string{"player_name", "head_count"} }

func (r *mockSQLRows) Close() error { return nil }

func (r *mockSQLRows) Next(dest []sqldriver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	dest[0] = r.rows[r.idx].name
	dest[1] = r.rows[r.idx].count
	r.idx++
	return nil
}
