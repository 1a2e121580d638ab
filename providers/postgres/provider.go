// Package postgres registers the "postgres" connector provider, backed by
// a pgx connection pool.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Konsultn-Engineering/namedsql/connector"
	"github.com/Konsultn-Engineering/namedsql/database"
	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

type Provider struct{}

func init() {
	connector.Register("postgres", &Provider{})
}

// DSN renders cfg as a postgres:// URL.
func DSN(cfg connector.Config) string {
	return connector.NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params).
		WithPostgresDefaults().
		Build()
}

// PoolConfig parses cfg into a pgxpool configuration with the pool
// limits applied.
func PoolConfig(cfg connector.Config) (*pgxpool.Config, error) {
	cfg = cfg.WithPoolDefaults()
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	poolCfg.MinConns = int32(min(cfg.Pool.MaxIdle, cfg.Pool.MaxOpen))
	poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime
	return poolCfg, nil
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("postgres: host is required")
	}
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return &Connection{pool: pool, db: database.NewPgxDatabase(pool)}, nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}

// Connection is an open pgx pool.
type Connection struct {
	pool *pgxpool.Pool
	db   *database.PgxDatabase
}

func (c *Connection) Database() database.Database { return c.db }

func (c *Connection) Dialect() dialect.Dialect { return dialect.NewPostgresDialect() }

// Pool returns the underlying pgx pool.
func (c *Connection) Pool() *pgxpool.Pool { return c.pool }

// SQLDB opens a database/sql handle over the same pool, for libraries
// that need *sql.DB.
func (c *Connection) SQLDB() *sql.DB {
	return stdlib.OpenDBFromPool(c.pool)
}

func (c *Connection) Health(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *Connection) Stats() connector.ConnectionStats {
	s := c.pool.Stat()
	return connector.ConnectionStats{
		OpenConnections: int(s.TotalConns()),
		InUse:           int(s.AcquiredConns()),
		Idle:            int(s.IdleConns()),
		WaitCount:       s.EmptyAcquireCount(),
	}
}

func (c *Connection) Close() error {
	c.pool.Close()
	return nil
}
