// Package sqldb guards SQL statements sent through a gorm connection pool.
package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/requestcontext"
	"github.com/NeuralTrust/TrustShield/pkg/vulnerabilities/sqlinjection"
	"gorm.io/gorm"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"

	MethodQuery   = "query"
	MethodExec    = "exec"
	MethodPrepare = "prepare"
)

var ErrUnsupportedTx = errors.New("connection pool does not support transactions")

// Wrapper instruments one SQL dialect.
type Wrapper struct {
	Dialect string
	Package string
}

func (w Wrapper) Wrap(h *hooks.Hooks) {
	module := h.AddModule(w.Dialect)
	if w.Package != "" {
		module.ForPackage(w.Package)
	}
	module.AddSubject(hooks.Exports).
		Inspect(MethodQuery, inspect(w.Dialect, MethodQuery)).
		Inspect(MethodExec, inspect(w.Dialect, MethodExec)).
		Inspect(MethodPrepare, inspect(w.Dialect, MethodPrepare))
}

func inspect(dialect, method string) hooks.InspectFunc {
	return func(ctx context.Context, args []any, _ any, agent hooks.Agent) error {
		request, ok := requestcontext.Current(ctx)
		if !ok || len(args) == 0 {
			return nil
		}
		query, ok := args[0].(string)
		if !ok || query == "" {
			return nil
		}
		return sqlinjection.CheckContextForSQLInjection(ctx, query, request, agent, dialect, method)
	}
}

// DB is a gorm.ConnPool whose statements are inspected before they reach
// the wrapped pool.
type DB struct {
	conn        gorm.ConnPool
	interceptor *hooks.Interceptor
	dialect     string
}

var (
	_ gorm.ConnPool         = (*DB)(nil)
	_ gorm.ConnPoolBeginner = (*DB)(nil)
	_ gorm.GetDBConnector   = (*DB)(nil)
	_ gorm.TxCommitter      = (*Tx)(nil)
	_ gorm.ConnPool         = (*Tx)(nil)
)

func Wrap(conn gorm.ConnPool, interceptor *hooks.Interceptor, dialect string) *DB {
	return &DB{conn: conn, interceptor: interceptor, dialect: dialect}
}

func (db *DB) guard(ctx context.Context, method, query string) error {
	return db.interceptor.Do(ctx, db.dialect, method, db, query)
}

func (db *DB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return prepare(ctx, db.guard, db.conn, query)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return execute(ctx, db.guard, db.conn, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return queryRows(ctx, db.guard, db.conn, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return queryRow(ctx, db.guard, db.conn, query, args...)
}

// BeginTx starts a transaction whose statements are inspected as well.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	switch beginner := db.conn.(type) {
	case gorm.TxBeginner:
		tx, err := beginner.BeginTx(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &Tx{conn: tx, committer: tx, db: db}, nil
	case gorm.ConnPoolBeginner:
		pool, err := beginner.BeginTx(ctx, opts)
		if err != nil {
			return nil, err
		}
		committer, _ := pool.(gorm.TxCommitter)
		return &Tx{conn: pool, committer: committer, db: db}, nil
	}
	return nil, ErrUnsupportedTx
}

// GetDBConn exposes the underlying *sql.DB for pool configuration.
func (db *DB) GetDBConn() (*sql.DB, error) {
	switch conn := db.conn.(type) {
	case *sql.DB:
		return conn, nil
	case gorm.GetDBConnector:
		return conn.GetDBConn()
	}
	return nil, gorm.ErrInvalidDB
}

type Tx struct {
	conn      gorm.ConnPool
	committer gorm.TxCommitter
	db        *DB
}

func (tx *Tx) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return prepare(ctx, tx.db.guard, tx.conn, query)
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return execute(ctx, tx.db.guard, tx.conn, query, args...)
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return queryRows(ctx, tx.db.guard, tx.conn, query, args...)
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return queryRow(ctx, tx.db.guard, tx.conn, query, args...)
}

func (tx *Tx) Commit() error {
	if tx.committer == nil {
		return ErrUnsupportedTx
	}
	return tx.committer.Commit()
}

func (tx *Tx) Rollback() error {
	if tx.committer == nil {
		return ErrUnsupportedTx
	}
	return tx.committer.Rollback()
}

type guardFunc func(ctx context.Context, method, query string) error

func prepare(ctx context.Context, guard guardFunc, conn gorm.ConnPool, query string) (*sql.Stmt, error) {
	if err := guard(ctx, MethodPrepare, query); err != nil {
		return nil, err
	}
	return conn.PrepareContext(ctx, query)
}

func execute(ctx context.Context, guard guardFunc, conn gorm.ConnPool, query string, args ...interface{}) (sql.Result, error) {
	if err := guard(ctx, MethodExec, query); err != nil {
		return nil, err
	}
	return conn.ExecContext(ctx, query, args...)
}

func queryRows(ctx context.Context, guard guardFunc, conn gorm.ConnPool, query string, args ...interface{}) (*sql.Rows, error) {
	if err := guard(ctx, MethodQuery, query); err != nil {
		return nil, err
	}
	return conn.QueryContext(ctx, query, args...)
}

// queryRow cannot return the blocking error directly; a blocked statement is
// handed to the pool with a cancelled context so it never executes and Scan
// fails.
func queryRow(ctx context.Context, guard guardFunc, conn gorm.ConnPool, query string, args ...interface{}) *sql.Row {
	if err := guard(ctx, MethodQuery, query); err != nil {
		cancelled, cancel := context.WithCancelCause(ctx)
		cancel(err)
		return conn.QueryRowContext(cancelled, query, args...)
	}
	return conn.QueryRowContext(ctx, query, args...)
}
