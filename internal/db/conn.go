// Package db owns the single SQLite connection shared by every content-cache
// service. All read and write paths go through Conn, which serializes access
// behind one mutex so transactions are opened and closed inside a single
// lock acquisition rather than held across suspension points.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const SchemaVersion = 1

// Conn wraps *sql.DB with a cooperative single-writer discipline: every
// exported method acquires mu for the duration of one statement or one
// transaction.
type Conn struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates (if absent) and opens the SQLite database at path, enables
// foreign-key enforcement process-wide, and runs migrations up to
// SchemaVersion.
func Open(path string) (*Conn, error) {
	sqlDB, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // a single physical connection backs the mutex discipline above

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	c := &Conn{db: sqlDB}
	if err := c.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return c, nil
}

func (c *Conn) migrate() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(log.Default())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(c.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

const slowQueryThreshold = 100 * time.Millisecond

// WithConn runs fn with exclusive access to the raw *sql.DB, logging a slow
// warning if fn takes longer than the documented threshold.
func (c *Conn) WithConn(fn func(*sql.DB) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()
	err := fn(c.db)
	if elapsed := time.Since(start); elapsed > slowQueryThreshold {
		log.Printf("db: slow operation took %s", elapsed)
	}
	return err
}

// WithTx begins a transaction, runs fn, and commits on success or rolls back
// on any error returned by fn, all inside a single lock acquisition. If fn
// panics, the deferred rollback and unlock run and the panic propagates to
// the caller unrecovered.
func (c *Conn) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				log.Printf("db: rollback after uncommitted tx failed: %v", rbErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true

	if elapsed := time.Since(start); elapsed > slowQueryThreshold {
		log.Printf("db: slow transaction took %s", elapsed)
	}
	return nil
}
