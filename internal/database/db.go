package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects the backing database
type Options struct {
	Driver  string
	DataDir string
	URL     string
}

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	driver string
	pool   *ConnectionPool
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens the configured database, applies the schema and sizes the pool
func NewDB(opts Options) (*DB, error) {
	var (
		sqlDB   *sql.DB
		err     error
		maxOpen = 25
	)

	switch opts.Driver {
	case "", DriverSQLite:
		opts.Driver = DriverSQLite
		if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath := filepath.Join(opts.DataDir, "campaign_analytics.db")
		connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)
		sqlDB, err = sql.Open("sqlite3", connStr)
		// sqlite serialises writers; one connection avoids SQLITE_BUSY under load
		maxOpen = 1
	case DriverPostgres:
		if opts.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for postgres")
		}
		sqlDB, err = sql.Open("postgres", opts.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(sqlDB, maxOpen, 5, 5*time.Minute)

	database := &DB{
		DB:     sqlDB,
		driver: opts.Driver,
		pool:   pool,
	}

	if err := database.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized",
		"driver", opts.Driver,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// Driver reports which backend is in use
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders to $n for postgres
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS voters (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			name TEXT NOT NULL,
			stance TEXT NOT NULL,
			influence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			political_party TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			district_id TEXT NOT NULL DEFAULT '',
			village TEXT NOT NULL DEFAULT '',
			neighborhood TEXT NOT NULL DEFAULT '',
			contact_count INTEGER NOT NULL DEFAULT 0,
			last_contact_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			deleted_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS voter_relationships (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			source_voter_id TEXT NOT NULL,
			target_voter_id TEXT NOT NULL,
			relation_type TEXT NOT NULL,
			influence_weight DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS districts (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			name TEXT NOT NULL,
			level TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			registered_voters INTEGER NOT NULL DEFAULT 0,
			boundary TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			voter_id TEXT NOT NULL,
			type TEXT NOT NULL,
			outcome TEXT NOT NULL,
			contacted_at TIMESTAMP NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			follow_up_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS campaign_versions (
			campaign_id TEXT PRIMARY KEY,
			version BIGINT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_voters_campaign ON voters(campaign_id, deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_relationships_campaign ON voter_relationships(campaign_id)`,
		`CREATE INDEX IF NOT EXISTS idx_districts_campaign ON districts(campaign_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_campaign_time ON contacts(campaign_id, contacted_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	stats := db.pool.GetStats()
	stats["driver"] = db.driver
	return stats
}
