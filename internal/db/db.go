// Package db is the persistence gateway: a single SQLite connection shared by every
// request, with retry on transient busy/locked failures.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"videoreview/internal/apperrors"
)

// Querier is the statement surface shared by the gateway and an open transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Options configures Open.
type Options struct {
	Path        string
	BusyRetries int           // extra attempts after the first busy failure
	BusyBackoff time.Duration // linear backoff unit: attempt n waits n*BusyBackoff
}

// Gateway owns the database handle. Create it with Open and release it with Close.
type Gateway struct {
	db      *sqlx.DB
	path    string
	logger  *logrus.Logger
	retries int
	backoff time.Duration
}

// Open prepares the database file, opens a single connection with foreign keys and
// WAL enabled, and applies pending migrations.
func Open(ctx context.Context, opts Options, logger *logrus.Logger) (*Gateway, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := ensureWritable(opts.Path); err != nil {
		return nil, err
	}

	dsn := opts.Path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_time_format=sqlite&_txlock=immediate"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time: every statement goes through the same connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	g := &Gateway{
		db:      conn,
		path:    opts.Path,
		logger:  logger,
		retries: opts.BusyRetries,
		backoff: opts.BusyBackoff,
	}
	if err := ApplyMigrations(ctx, g); err != nil {
		conn.Close()
		return nil, err
	}

	logger.WithField("path", opts.Path).Info("Database opened")
	return g, nil
}

func ensureWritable(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("database file %s is not writable: %w", path, err)
	}
	return f.Close()
}

// Close releases the connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// Path returns the database file location.
func (g *Gateway) Path() string {
	return g.path
}

func (g *Gateway) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var res sql.Result
	err := g.withRetry(ctx, "exec", func() error {
		var err error
		res, err = g.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (g *Gateway) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return g.withRetry(ctx, "select", func() error {
		return g.db.SelectContext(ctx, dest, query, args...)
	})
}

// GetContext scans a single row. A missing row is reported as sql.ErrNoRows, unwrapped.
func (g *Gateway) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return g.withRetry(ctx, "get", func() error {
		return g.db.GetContext(ctx, dest, query, args...)
	})
}

// Execute runs a statement with positional parameters and returns every row as a
// column-name keyed record. Statements without a result set return no rows.
func (g *Gateway) Execute(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	err := g.withRetry(ctx, "execute", func() error {
		records = nil
		rows, err := g.db.QueryxContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			rec := make(map[string]interface{})
			if err := rows.MapScan(rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	return records, err
}

// InTx runs fn inside a transaction, committing on success and rolling back on any
// error. A busy failure retries the whole unit.
func (g *Gateway) InTx(ctx context.Context, fn func(tx Querier) error) error {
	return g.withRetry(ctx, "transaction", func() error {
		tx, err := g.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				g.logger.WithError(rbErr).Warn("Rollback failed")
			}
			return err
		}
		return tx.Commit()
	})
}

func (g *Gateway) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !IsBusy(err) || attempt >= g.retries {
			break
		}
		wait := g.backoff * time.Duration(attempt+1)
		g.logger.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt + 1,
			"wait_ms": wait.Milliseconds(),
		}).Warn("Database busy, retrying")
		select {
		case <-ctx.Done():
			return apperrors.Persistence(ctx.Err(), "database %s cancelled", op)
		case <-time.After(wait):
		}
	}
	return classify(op, err)
}

// classify leaves nil, sql.ErrNoRows and already classified errors untouched and
// marks everything else as a persistence failure.
func classify(op string, err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Persistence(err, "database %s failed", op)
}

// IsBusy reports whether err is SQLite's transient busy or locked condition.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
