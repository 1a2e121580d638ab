package connector

import (
	"context"

	"github.com/Konsultn-Engineering/namedsql/database"
	"github.com/Konsultn-Engineering/namedsql/dialect"
)

// Connection is an open database together with the dialect that speaks
// to it.
type Connection interface {
	Database() database.Database
	Dialect() dialect.Dialect
	Health(ctx context.Context) error
	Stats() ConnectionStats
	Close() error
}

// Connector opens connections for one provider and config.
type Connector interface {
	Connect(ctx context.Context) (Connection, error)
	ConnectWithRetry(ctx context.Context, opts RetryConfig) (Connection, error)
	Close() error
}
