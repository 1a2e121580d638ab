package engine

import (
	"fmt"
	"os"

	"github.com/Konsultn-Engineering/namedsql/dialect"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the engine options.
type Config struct {
	Dialect            string      `json:"dialect" yaml:"dialect"`
	Strict             bool        `json:"strict" yaml:"strict"`
	Debug              bool        `json:"debug" yaml:"debug"`
	StatementCacheSize int         `json:"statement_cache_size" yaml:"statement_cache_size"`
	Batch              BatchConfig `json:"batch" yaml:"batch"`
}

type BatchConfig struct {
	ChunkSize      int  `json:"chunk_size" yaml:"chunk_size"`
	CommitPerChunk bool `json:"commit_per_chunk" yaml:"commit_per_chunk"`
}

// LoadConfig reads a YAML engine config. Environment variables in the
// file are expanded.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML engine config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Dialect != "" {
		if _, err := dialect.ByName(c.Dialect); err != nil {
			return err
		}
	}
	if c.StatementCacheSize < 0 {
		return fmt.Errorf("statement_cache_size must be >= 0")
	}
	if c.Batch.ChunkSize < 0 {
		return fmt.Errorf("batch.chunk_size must be >= 0")
	}
	return nil
}

// Options turns the config into engine options.
func (c *Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var opts []Option
	if c.Dialect != "" {
		d, _ := dialect.ByName(c.Dialect)
		opts = append(opts, WithDialect(d))
	}
	opts = append(opts, WithStrict(c.Strict))
	if c.Debug {
		opts = append(opts, WithLogger(DebugLogger(nil)))
	}
	if c.StatementCacheSize > 0 {
		opts = append(opts, WithDefaultStatementCache(c.StatementCacheSize))
	}
	chunk := c.Batch.ChunkSize
	if chunk == 0 {
		chunk = DefaultChunkSize
	}
	opts = append(opts, WithBatchDefaults(chunk, c.Batch.CommitPerChunk))
	return opts, nil
}
