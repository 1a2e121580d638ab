package schema

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQLType is the SQL type a bound value is sent as. It selects the
// driver-level representation of the value.
type SQLType int

const (
	SQLUnknown SQLType = iota
	SQLNull
	SQLBoolean
	SQLTinyInt
	SQLSmallInt
	SQLInteger
	SQLBigInt
	SQLReal
	SQLDouble
	SQLDecimal
	SQLChar
	SQLVarchar
	SQLText
	SQLBinary
	SQLDate
	SQLTime
	SQLTimestamp
	SQLUUID
	SQLJSON
	SQLOther
)

var sqlTypeNames = [...]string{
	SQLUnknown:   "UNKNOWN",
	SQLNull:      "NULL",
	SQLBoolean:   "BOOLEAN",
	SQLTinyInt:   "TINYINT",
	SQLSmallInt:  "SMALLINT",
	SQLInteger:   "INTEGER",
	SQLBigInt:    "BIGINT",
	SQLReal:      "REAL",
	SQLDouble:    "DOUBLE",
	SQLDecimal:   "DECIMAL",
	SQLChar:      "CHAR",
	SQLVarchar:   "VARCHAR",
	SQLText:      "TEXT",
	SQLBinary:    "BINARY",
	SQLDate:      "DATE",
	SQLTime:      "TIME",
	SQLTimestamp: "TIMESTAMP",
	SQLUUID:      "UUID",
	SQLJSON:      "JSON",
	SQLOther:     "OTHER",
}

func (t SQLType) String() string {
	if t < 0 || int(t) >= len(sqlTypeNames) {
		return fmt.Sprintf("SQLType(%d)", int(t))
	}
	return sqlTypeNames[t]
}

// DBTypeMap maps SQL type names, as written in DDL and in `type:` tag
// options, to SQLType.
var DBTypeMap = map[string]SQLType{
	"BOOL":              SQLBoolean,
	"BOOLEAN":           SQLBoolean,
	"BIT":               SQLBoolean,
	"TINYINT":           SQLTinyInt,
	"SMALLINT":          SQLSmallInt,
	"INT2":              SQLSmallInt,
	"INT":               SQLInteger,
	"INTEGER":           SQLInteger,
	"INT4":              SQLInteger,
	"MEDIUMINT":         SQLInteger,
	"BIGINT":            SQLBigInt,
	"INT8":              SQLBigInt,
	"SERIAL":            SQLInteger,
	"BIGSERIAL":         SQLBigInt,
	"REAL":              SQLReal,
	"FLOAT4":            SQLReal,
	"FLOAT":             SQLDouble,
	"FLOAT8":            SQLDouble,
	"DOUBLE":            SQLDouble,
	"DOUBLE PRECISION":  SQLDouble,
	"DECIMAL":           SQLDecimal,
	"NUMERIC":           SQLDecimal,
	"MONEY":             SQLDecimal,
	"CHAR":              SQLChar,
	"CHARACTER":         SQLChar,
	"NCHAR":             SQLChar,
	"VARCHAR":           SQLVarchar,
	"CHARACTER VARYING": SQLVarchar,
	"NVARCHAR":          SQLVarchar,
	"STRING":            SQLVarchar,
	"TEXT":              SQLText,
	"CLOB":              SQLText,
	"LONGTEXT":          SQLText,
	"BINARY":            SQLBinary,
	"VARBINARY":         SQLBinary,
	"BLOB":              SQLBinary,
	"BYTEA":             SQLBinary,
	"DATE":              SQLDate,
	"TIME":              SQLTime,
	"TIMESTAMP":         SQLTimestamp,
	"TIMESTAMPTZ":       SQLTimestamp,
	"DATETIME":          SQLTimestamp,
	"UUID":              SQLUUID,
	"JSON":              SQLJSON,
	"JSONB":             SQLJSON,
}

// ParseSQLType resolves a type name such as "varchar(255)".
func ParseSQLType(name string) (SQLType, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	if t, ok := DBTypeMap[n]; ok {
		return t, nil
	}
	return SQLUnknown, fmt.Errorf("unknown SQL type %q", name)
}

var (
	uuidType       = reflect.TypeOf(uuid.UUID{})
	nullStringType = reflect.TypeOf(sql.NullString{})
	nullInt64Type  = reflect.TypeOf(sql.NullInt64{})
	nullInt32Type  = reflect.TypeOf(sql.NullInt32{})
	nullFloatType  = reflect.TypeOf(sql.NullFloat64{})
	nullBoolType   = reflect.TypeOf(sql.NullBool{})
	nullTimeType   = reflect.TypeOf(sql.NullTime{})
)

// InferSQLType returns the default SQL type for values of Go type t.
// A nil type means an untyped nil and yields SQLNull.
func InferSQLType(t reflect.Type) SQLType {
	if t == nil {
		return SQLNull
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case timeType, nullTimeType:
		return SQLTimestamp
	case uuidType:
		return SQLUUID
	case nullStringType:
		return SQLVarchar
	case nullInt64Type:
		return SQLBigInt
	case nullInt32Type:
		return SQLInteger
	case nullFloatType:
		return SQLDouble
	case nullBoolType:
		return SQLBoolean
	}
	if _, ok := lookupEnum(t); ok {
		return SQLInteger
	}
	switch t.Kind() {
	case reflect.Bool:
		return SQLBoolean
	case reflect.Int8:
		return SQLTinyInt
	case reflect.Int16, reflect.Uint8:
		return SQLSmallInt
	case reflect.Int32, reflect.Uint16:
		return SQLInteger
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return SQLBigInt
	case reflect.Float32:
		return SQLReal
	case reflect.Float64:
		return SQLDouble
	case reflect.String:
		return SQLVarchar
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return SQLBinary
		}
		return SQLJSON
	case reflect.Map:
		return SQLJSON
	}
	return SQLOther
}

// Coerce converts v into the driver representation of SQL type t.
// nil stays nil. SQLUnknown and SQLOther pass v through.
func Coerce(v any, t SQLType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case SQLBoolean:
		return Convert[bool](v)
	case SQLTinyInt, SQLSmallInt, SQLInteger, SQLBigInt:
		return Convert[int64](v)
	case SQLReal, SQLDouble:
		return Convert[float64](v)
	case SQLChar, SQLVarchar, SQLText, SQLDecimal:
		if s, ok := v.(fmt.Stringer); ok {
			if _, isTime := v.(time.Time); !isTime {
				return s.String(), nil
			}
		}
		return Convert[string](v)
	case SQLBinary:
		return Convert[[]byte](v)
	case SQLDate:
		tm, err := Convert[time.Time](v)
		if err != nil {
			return nil, err
		}
		y, m, d := tm.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, tm.Location()), nil
	case SQLTime, SQLTimestamp:
		return Convert[time.Time](v)
	case SQLUUID:
		id, err := Convert[uuid.UUID](v)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	case SQLJSON:
		switch j := v.(type) {
		case string, []byte, json.RawMessage:
			return j, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
		}
		return string(b), nil
	}
	return v, nil
}
