package dialect

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type renderStyle struct {
	trueLit, falseLit string
	bytes             func([]byte) string
	timeLayout        string
}

// quoteString encloses s in single quotes, doubling embedded quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func hexBytes(prefix, suffix string) func([]byte) string {
	return func(b []byte) string {
		return prefix + hex.EncodeToString(b) + suffix
	}
}

func (r renderStyle) render(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case Expr:
		return string(val), nil
	case string:
		return quoteString(val), nil
	case []byte:
		if val == nil {
			return "NULL", nil
		}
		return r.bytes(val), nil
	case bool:
		if val {
			return r.trueLit, nil
		}
		return r.falseLit, nil
	case time.Time:
		return quoteString(val.Format(r.timeLayout)), nil
	case driver.Valuer:
		dv, err := val.Value()
		if err != nil {
			return "", err
		}
		return r.render(dv)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "NULL", nil
		}
		return r.render(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.String:
		return quoteString(rv.String()), nil
	case reflect.Bool:
		return r.render(rv.Bool())
	}

	if s, ok := v.(fmt.Stringer); ok {
		return quoteString(s.String()), nil
	}
	return "", fmt.Errorf("cannot render value of type %T as SQL literal", v)
}
