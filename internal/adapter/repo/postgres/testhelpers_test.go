package postgres_test

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// mockPool implements postgres.PgxPool with testify/mock.
type mockPool struct{ mock.Mock }

func (m *mockPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	a := m.Called(ctx, sql, args)
	return pgconn.CommandTag{}, a.Error(0)
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	a := m.Called(ctx, sql, args)
	return a.Get(0).(pgx.Row)
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	a := m.Called(ctx, sql, args)
	rows, _ := a.Get(0).(pgx.Rows)
	return rows, a.Error(1)
}

func (m *mockPool) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	a := m.Called(ctx, opts)
	tx, _ := a.Get(0).(pgx.Tx)
	return tx, a.Error(1)
}

// txStub records statements executed inside a transaction.
type txStub struct {
	pgx.Tx
	execs      []string
	failOnExec int
	rows       *rowsStub
	queries    []string
	committed  bool
	rolledBack bool
}

func (t *txStub) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	t.queries = append(t.queries, sql)
	if t.rows == nil {
		return nil, fmt.Errorf("query failed")
	}
	return t.rows, nil
}

func (t *txStub) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	if t.failOnExec > 0 && len(t.execs) == t.failOnExec {
		return pgconn.CommandTag{}, fmt.Errorf("exec %d failed", t.failOnExec)
	}
	return pgconn.CommandTag{}, nil
}

func (t *txStub) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *txStub) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

// rowsStub iterates over in-memory rows and copies values into Scan targets.
type rowsStub struct {
	pgx.Rows
	data   [][]any
	pos    int
	err    error
	closed bool
}

func (r *rowsStub) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *rowsStub) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: want %d columns, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int:
			*p = row[i].(int)
		case *bool:
			*p = row[i].(bool)
		case *string:
			*p = row[i].(string)
		default:
			return fmt.Errorf("scan: unsupported type %T", d)
		}
	}
	return nil
}

func (r *rowsStub) Err() error { return r.err }
func (r *rowsStub) Close()     { r.closed = true }
