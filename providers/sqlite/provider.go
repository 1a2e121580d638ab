// Package sqlite registers the "sqlite3" connector provider, backed by
// github.com/mattn/go-sqlite3. Config.Database is the file path or
// ":memory:".
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Konsultn-Engineering/namedsql/connector"
	"github.com/Konsultn-Engineering/namedsql/database"
	"github.com/Konsultn-Engineering/namedsql/dialect"
	_ "github.com/mattn/go-sqlite3"
)

type Provider struct{}

func init() {
	connector.Register("sqlite3", &Provider{})
}

// DSN renders cfg as a go-sqlite3 file: DSN. Foreign keys are on unless
// Params says otherwise.
func DSN(cfg connector.Config) string {
	b := connector.NewDSNBuilder("file").Database(cfg.Database)
	b.Param("_foreign_keys", "on")
	return b.Params(cfg.Params).Build()
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("sqlite3: database path is required")
	}
	db, err := sql.Open("sqlite3", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite3: %w", err)
	}
	// every connection to :memory: is a separate database
	if cfg.Database == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if cfg.Pool.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.Pool.MaxOpen)
	}
	if cfg.Pool.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.Pool.MaxIdle)
	}
	db.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)
	return &Connection{db: db}, nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewSQLiteDialect()
}

// Connection is an open SQLite database.
type Connection struct {
	db *sql.DB
}

func (c *Connection) Database() database.Database { return database.NewSqlDatabase(c.db) }

func (c *Connection) Dialect() dialect.Dialect { return dialect.NewSQLiteDialect() }

// DB returns the database/sql handle.
func (c *Connection) DB() *sql.DB { return c.db }

func (c *Connection) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Connection) Stats() connector.ConnectionStats {
	return connector.StatsFromDB(c.db.Stats())
}

func (c *Connection) Close() error {
	return c.db.Close()
}
