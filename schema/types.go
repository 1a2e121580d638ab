package schema

import "reflect"

// EntityMeta describes a struct type once so that rows and binds of that
// type never repeat field lookups.
type EntityMeta struct {
	Type      reflect.Type
	Name      string
	TableName string
	Fields    []*FieldMeta
	FieldMap  map[string]*FieldMeta // Go field name -> FieldMeta
	ColumnMap map[string]*FieldMeta // Database column name -> FieldMeta
}

// FieldMeta is a field reader and writer for one struct field, possibly
// promoted from an embedded struct.
type FieldMeta struct {
	Name      string
	Column    string
	Type      reflect.Type
	Index     []int
	Tag       *ParsedTag
	SQLType   SQLType // from type:<name>, SQLUnknown when absent
	Generator IDGenerator

	convert Converter
}

// TableNamer overrides the table name derived from the struct name.
type TableNamer interface {
	TableName() string
}
