package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ParsedTag is the parsed form of a `db` struct tag.
type ParsedTag struct {
	ColumnName string // explicit or derived column name
	Explicit   bool   // ColumnName came from the tag
	Skip       bool   // db:"-"
	Type       string // SQL type override, e.g. varchar
	Primary    bool
	ReadOnly   bool   // never written by generated INSERTs
	Generator  string // uuid, ulid or a registered generator
}

// TagParser parses and caches `db` struct tags.
type TagParser struct {
	namingStrategy ColumnNamingStrategy
	cache          map[string]*ParsedTag
	cacheMu        sync.RWMutex
}

func NewTagParser(namingStrategy ColumnNamingStrategy) *TagParser {
	return &TagParser{
		namingStrategy: namingStrategy,
		cache:          make(map[string]*ParsedTag, 64),
	}
}

// ParseTag parses the `db` tag of a field.
//
// Supported tag syntax:
//
//	`db:"column_name"`                  // column mapping
//	`db:"column:custom_name"`           // explicit column name
//	`db:"id;primary;generator:uuid"`    // options after the name
//	`db:"created;readonly"`             // skipped by generated INSERTs
//	`db:"status;type:varchar"`          // SQL type used when binding
//	`db:"-"`                            // skip field entirely
func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	tagValue, ok := tag.Lookup("db")
	if !ok || tagValue == "" {
		return &ParsedTag{ColumnName: p.namingStrategy.ColumnName(fieldName)}, nil
	}

	cacheKey := fieldName + ":" + tagValue
	p.cacheMu.RLock()
	if cached, exists := p.cache[cacheKey]; exists {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	parsed, err := p.parseTagValue(fieldName, tagValue)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fieldName, err)
	}

	p.cacheMu.Lock()
	p.cache[cacheKey] = parsed
	p.cacheMu.Unlock()
	return parsed, nil
}

func (p *TagParser) parseTagValue(fieldName, tagValue string) (*ParsedTag, error) {
	if tagValue == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{ColumnName: p.namingStrategy.ColumnName(fieldName)}
	for i, option := range strings.Split(tagValue, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		if i == 0 && !strings.ContainsRune(option, ':') && !isFlag(option) {
			parsed.ColumnName = option
			parsed.Explicit = true
			continue
		}
		if err := parseOption(parsed, option); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

func isFlag(option string) bool {
	switch option {
	case "primary", "primary_key", "readonly", "auto":
		return true
	}
	return false
}

func parseOption(tag *ParsedTag, option string) error {
	key, value, hasValue := strings.Cut(option, ":")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if !hasValue {
		switch key {
		case "primary", "primary_key":
			tag.Primary = true
		case "readonly":
			tag.ReadOnly = true
		case "auto":
			tag.ReadOnly = true
			tag.Primary = true
		}
		// Unknown flags are ignored for forward compatibility.
		return nil
	}

	switch key {
	case "column", "name":
		if value == "" {
			return fmt.Errorf("empty column name")
		}
		tag.ColumnName = value
		tag.Explicit = true
	case "type":
		tag.Type = value
	case "generator", "gen":
		if _, ok := defaultRegistry.Get(value); !ok {
			return fmt.Errorf("unknown generator %q", value)
		}
		tag.Generator = value
	}
	return nil
}

// IsSkipped returns true if this field should be skipped entirely.
func (tag *ParsedTag) IsSkipped() bool {
	return tag.Skip
}

// GetGenerator returns the configured ID generator, or nil.
func (tag *ParsedTag) GetGenerator() IDGenerator {
	if tag.Generator == "" {
		return nil
	}
	generator, _ := defaultRegistry.Get(tag.Generator)
	return generator
}
