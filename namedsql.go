// Package namedsql opens a database through a registered connector
// provider and wraps it in an engine that speaks the provider's dialect.
//
// Providers register themselves on import:
//
//	import _ "github.com/Konsultn-Engineering/namedsql/providers/postgres"
//
//	db, err := namedsql.Open(ctx, "postgres", connector.Config{Host: "localhost", Port: 5432})
package namedsql

import (
	"context"
	"errors"

	"github.com/Konsultn-Engineering/namedsql/connector"
	"github.com/Konsultn-Engineering/namedsql/engine"
)

// DB is an engine together with the connection it runs on.
type DB struct {
	*engine.Engine
	conn connector.Connection
}

// Open connects with the provider registered as driver. The engine uses
// the provider's dialect unless opts set another.
func Open(ctx context.Context, driver string, cfg connector.Config, opts ...engine.Option) (*DB, error) {
	conn, err := connector.Open(ctx, driver, cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithDialect(conn.Dialect())}, opts...)
	return &DB{Engine: engine.New(conn.Database(), opts...), conn: conn}, nil
}

// OpenFiles reads a connector config and an optional engine config (""
// to skip) and opens the database they describe.
func OpenFiles(ctx context.Context, connectorPath, enginePath string) (*DB, error) {
	fc, err := connector.LoadConfig(connectorPath)
	if err != nil {
		return nil, err
	}
	var opts []engine.Option
	if enginePath != "" {
		ec, err := engine.LoadConfig(enginePath)
		if err != nil {
			return nil, err
		}
		if opts, err = ec.Options(); err != nil {
			return nil, err
		}
	}
	return Open(ctx, fc.Driver, fc.Config, opts...)
}

// Connection returns the underlying connection.
func (db *DB) Connection() connector.Connection { return db.conn }

// Close closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return errors.New("namedsql: database not open")
	}
	return db.conn.Close()
}
