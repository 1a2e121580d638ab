package connector

import (
	"context"

	"github.com/Konsultn-Engineering/namedsql/dialect"
)

// Provider opens connections for one driver. Providers register
// themselves with Register, usually from an init function.
type Provider interface {
	Connect(ctx context.Context, config Config) (Connection, error)
	Dialect() dialect.Dialect
}
