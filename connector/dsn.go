package connector

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DSNBuilder provides a fluent interface for building database connection strings
type DSNBuilder struct {
	scheme   string
	username string
	password string
	host     string
	port     int
	database string
	params   map[string]string
}

// NewDSNBuilder creates a new DSN builder. The "file" scheme builds a
// SQLite style DSN from the database path.
func NewDSNBuilder(scheme string) *DSNBuilder {
	return &DSNBuilder{
		scheme: scheme,
		params: make(map[string]string),
	}
}

// Auth sets username and password
func (b *DSNBuilder) Auth(username, password string) *DSNBuilder {
	b.username = username
	b.password = password
	return b
}

// Host sets the host and port
func (b *DSNBuilder) Host(host string, port int) *DSNBuilder {
	b.host = host
	b.port = port
	return b
}

// Database sets the database name
func (b *DSNBuilder) Database(name string) *DSNBuilder {
	b.database = name
	return b
}

// Param adds a single parameter
func (b *DSNBuilder) Param(key, value string) *DSNBuilder {
	if value != "" {
		b.params[key] = value
	}
	return b
}

// Params adds multiple parameters
func (b *DSNBuilder) Params(params map[string]string) *DSNBuilder {
	for k, v := range params {
		b.Param(k, v)
	}
	return b
}

// WithPostgresDefaults sets sslmode and connect_timeout unless already set.
func (b *DSNBuilder) WithPostgresDefaults() *DSNBuilder {
	if _, ok := b.params["sslmode"]; !ok {
		b.Param("sslmode", "prefer")
	}
	if _, ok := b.params["connect_timeout"]; !ok {
		b.Param("connect_timeout", "10")
	}
	return b
}

func (b *DSNBuilder) Validate() error {
	if b.scheme == "file" {
		if b.database == "" {
			return fmt.Errorf("database path is required")
		}
		return nil
	}
	if b.host == "" {
		return fmt.Errorf("host is required")
	}
	if b.port < 0 || b.port > 65535 {
		return fmt.Errorf("invalid port: %d", b.port)
	}
	return nil
}

// Build constructs the final DSN string. Parameters are sorted by key.
func (b *DSNBuilder) Build() string {
	var dsn strings.Builder

	dsn.WriteString(b.scheme)
	if b.scheme == "file" {
		dsn.WriteString(":")
		dsn.WriteString(b.database)
	} else {
		dsn.WriteString("://")
		if b.username != "" {
			dsn.WriteString(url.QueryEscape(b.username))
			if b.password != "" {
				dsn.WriteString(":")
				dsn.WriteString(url.QueryEscape(b.password))
			}
			dsn.WriteString("@")
		}
		dsn.WriteString(b.host)
		if b.port > 0 {
			dsn.WriteString(":")
			dsn.WriteString(strconv.Itoa(b.port))
		}
		if b.database != "" {
			dsn.WriteString("/")
			dsn.WriteString(url.PathEscape(b.database))
		}
	}

	if len(b.params) > 0 {
		dsn.WriteString("?")
		for i, key := range slices.Sorted(maps.Keys(b.params)) {
			if i > 0 {
				dsn.WriteString("&")
			}
			dsn.WriteString(url.QueryEscape(key))
			dsn.WriteString("=")
			dsn.WriteString(url.QueryEscape(b.params[key]))
		}
	}

	return dsn.String()
}
