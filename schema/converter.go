package schema

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Converter converts a driver value into a fixed destination type.
type Converter func(src any) (reflect.Value, error)

// ErrUnsupportedConversion is wrapped by every conversion failure.
var ErrUnsupportedConversion = errors.New("unsupported conversion")

var (
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// Pre-compiled converter cache, one entry per destination type.
var converterCache = sync.Map{} // map[reflect.Type]Converter

// timeLayouts are tried in order when parsing text into time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ConverterFor returns the cached converter into dst.
func ConverterFor(dst reflect.Type) Converter {
	if c, ok := converterCache.Load(dst); ok {
		return c.(Converter)
	}
	c, _ := converterCache.LoadOrStore(dst, buildConverter(dst))
	return c.(Converter)
}

// ConvertTo converts src into a value of type dst.
func ConvertTo(src any, dst reflect.Type) (reflect.Value, error) {
	return ConverterFor(dst)(src)
}

// Convert converts src into T.
func Convert[T any](src any) (T, error) {
	var zero T
	v, err := ConvertTo(src, reflect.TypeOf(&zero).Elem())
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

func unsupported(src any, dst reflect.Type) error {
	return fmt.Errorf("%w: %T to %s", ErrUnsupportedConversion, src, dst)
}

func buildConverter(dst reflect.Type) Converter {
	if reflect.PointerTo(dst).Implements(scannerType) {
		return func(src any) (reflect.Value, error) {
			if src != nil && reflect.TypeOf(src) == dst {
				return reflect.ValueOf(src), nil
			}
			p := reflect.New(dst)
			if err := p.Interface().(sql.Scanner).Scan(cloneBytes(src)); err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
			}
			return p.Elem(), nil
		}
	}

	var base func(src any) (reflect.Value, error)
	switch dst.Kind() {
	case reflect.Ptr:
		elem := ConverterFor(dst.Elem())
		return func(src any) (reflect.Value, error) {
			if src == nil {
				return reflect.Zero(dst), nil
			}
			v, err := elem(src)
			if err != nil {
				return reflect.Value{}, err
			}
			p := reflect.New(dst.Elem())
			p.Elem().Set(v)
			return p, nil
		}
	case reflect.Interface:
		return func(src any) (reflect.Value, error) {
			out := reflect.New(dst).Elem()
			if src == nil {
				return out, nil
			}
			v := reflect.ValueOf(cloneBytes(src))
			if !v.Type().AssignableTo(dst) {
				return reflect.Value{}, unsupported(src, dst)
			}
			out.Set(v)
			return out, nil
		}
	case reflect.String:
		base = toString(dst)
	case reflect.Bool:
		base = toBool(dst)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		base = toInt(dst)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		base = toUint(dst)
	case reflect.Float32, reflect.Float64:
		base = toFloat(dst)
	case reflect.Struct:
		if dst == timeType {
			base = toTime
		}
	case reflect.Slice:
		if dst.Elem().Kind() == reflect.Uint8 {
			base = toBytes(dst)
		} else {
			base = fromJSON(dst)
		}
	case reflect.Map:
		base = fromJSON(dst)
	}

	return func(src any) (reflect.Value, error) {
		if v, ok := src.(driver.Valuer); ok {
			dv, err := v.Value()
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
			}
			src = dv
		}
		if src == nil {
			if dst.Kind() == reflect.Slice || dst.Kind() == reflect.Map {
				return reflect.Zero(dst), nil
			}
			return reflect.Value{}, fmt.Errorf("%w: NULL to %s", ErrUnsupportedConversion, dst)
		}
		sv := reflect.ValueOf(src)
		if sv.Type() == dst {
			return reflect.ValueOf(cloneBytes(src)), nil
		}
		if e, ok := lookupEnum(dst); ok {
			return e.fromDriver(src)
		}
		if base != nil {
			return base(src)
		}
		if sv.Type().AssignableTo(dst) {
			out := reflect.New(dst).Elem()
			out.Set(sv)
			return out, nil
		}
		return reflect.Value{}, unsupported(src, dst)
	}
}

// cloneBytes copies []byte so that the result does not alias driver memory.
func cloneBytes(src any) any {
	if b, ok := src.([]byte); ok && b != nil {
		return append([]byte(nil), b...)
	}
	return src
}

// ===================
// STRING CONVERTERS
// ===================

func toString(dst reflect.Type) func(any) (reflect.Value, error) {
	return func(src any) (reflect.Value, error) {
		var s string
		switch v := src.(type) {
		case string:
			s = v
		case []byte:
			s = string(v)
		case time.Time:
			s = v.Format(time.RFC3339Nano)
		case bool:
			s = strconv.FormatBool(v)
		default:
			rv := reflect.ValueOf(src)
			switch {
			case isInt(rv.Kind()):
				s = strconv.FormatInt(rv.Int(), 10)
			case isUint(rv.Kind()):
				s = strconv.FormatUint(rv.Uint(), 10)
			case isFloat(rv.Kind()):
				s = strconv.FormatFloat(rv.Float(), 'f', -1, 64)
			case rv.Kind() == reflect.String:
				s = rv.String()
			default:
				str, ok := src.(fmt.Stringer)
				if !ok {
					return reflect.Value{}, unsupported(src, dst)
				}
				s = str.String()
			}
		}
		return reflect.ValueOf(s).Convert(dst), nil
	}
}

// ===================
// NUMERIC CONVERTERS
// ===================

func toInt(dst reflect.Type) func(any) (reflect.Value, error) {
	return func(src any) (reflect.Value, error) {
		out := reflect.New(dst).Elem()
		rv := reflect.ValueOf(src)
		var n int64
		switch {
		case isInt(rv.Kind()):
			n = rv.Int()
		case isUint(rv.Kind()):
			u := rv.Uint()
			if u > math.MaxInt64 {
				return reflect.Value{}, overflow(src, dst)
			}
			n = int64(u)
		case isFloat(rv.Kind()):
			f := rv.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return reflect.Value{}, overflow(src, dst)
			}
			n = int64(f)
		case rv.Kind() == reflect.Bool:
			if rv.Bool() {
				n = 1
			}
		default:
			s, ok := text(src)
			if !ok {
				return reflect.Value{}, unsupported(src, dst)
			}
			var err error
			if n, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %q to %s", ErrUnsupportedConversion, s, dst)
			}
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, overflow(src, dst)
		}
		out.SetInt(n)
		return out, nil
	}
}

func toUint(dst reflect.Type) func(any) (reflect.Value, error) {
	return func(src any) (reflect.Value, error) {
		out := reflect.New(dst).Elem()
		rv := reflect.ValueOf(src)
		var n uint64
		switch {
		case isUint(rv.Kind()):
			n = rv.Uint()
		case isInt(rv.Kind()):
			i := rv.Int()
			if i < 0 {
				return reflect.Value{}, overflow(src, dst)
			}
			n = uint64(i)
		case isFloat(rv.Kind()):
			f := rv.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return reflect.Value{}, overflow(src, dst)
			}
			n = uint64(f)
		default:
			s, ok := text(src)
			if !ok {
				return reflect.Value{}, unsupported(src, dst)
			}
			var err error
			if n, err = strconv.ParseUint(strings.TrimSpace(s), 10, 64); err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %q to %s", ErrUnsupportedConversion, s, dst)
			}
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, overflow(src, dst)
		}
		out.SetUint(n)
		return out, nil
	}
}

func toFloat(dst reflect.Type) func(any) (reflect.Value, error) {
	return func(src any) (reflect.Value, error) {
		out := reflect.New(dst).Elem()
		rv := reflect.ValueOf(src)
		var f float64
		switch {
		case isFloat(rv.Kind()):
			f = rv.Float()
		case isInt(rv.Kind()):
			f = float64(rv.Int())
		case isUint(rv.Kind()):
			f = float64(rv.Uint())
		default:
			s, ok := text(src)
			if !ok {
				return reflect.Value{}, unsupported(src, dst)
			}
			var err error
			if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %q to %s", ErrUnsupportedConversion, s, dst)
			}
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, overflow(src, dst)
		}
		out.SetFloat(f)
		return out, nil
	}
}

func toBool(dst reflect.Type) func(any) (reflect.Value, error) {
	return func(src any) (reflect.Value, error) {
		rv := reflect.ValueOf(src)
		var b bool
		switch {
		case rv.Kind() == reflect.Bool:
			b = rv.Bool()
		case isInt(rv.Kind()):
			b = rv.Int() != 0
		case isUint(rv.Kind()):
			b = rv.Uint() != 0
		default:
			s, ok := text(src)
			if !ok {
				return reflect.Value{}, unsupported(src, dst)
			}
			var err error
			if b, err = strconv.ParseBool(strings.TrimSpace(s)); err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %q to %s", ErrUnsupportedConversion, s, dst)
			}
		}
		return reflect.ValueOf(b).Convert(dst), nil
	}
}

// ===================
// OTHER CONVERTERS
// ===================

func toTime(src any) (reflect.Value, error) {
	switch v := src.(type) {
	case time.Time:
		return reflect.ValueOf(v), nil
	case int64:
		return reflect.ValueOf(time.Unix(v, 0).UTC()), nil
	}
	s, ok := text(src)
	if !ok {
		return reflect.Value{}, unsupported(src, timeType)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return reflect.ValueOf(t), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: %q to time.Time", ErrUnsupportedConversion, s)
}

func toBytes(dst reflect.Type) func(any) (reflect.Value, error) {
	return func(src any) (reflect.Value, error) {
		switch v := src.(type) {
		case []byte:
			return reflect.ValueOf(append([]byte(nil), v...)).Convert(dst), nil
		case string:
			return reflect.ValueOf([]byte(v)).Convert(dst), nil
		}
		return reflect.Value{}, unsupported(src, dst)
	}
}

// fromJSON decodes JSON text into slices and maps.
func fromJSON(dst reflect.Type) func(any) (reflect.Value, error) {
	return func(src any) (reflect.Value, error) {
		s, ok := text(src)
		if !ok {
			sv := reflect.ValueOf(src)
			if sv.Type().ConvertibleTo(dst) {
				return sv.Convert(dst), nil
			}
			return reflect.Value{}, unsupported(src, dst)
		}
		p := reflect.New(dst)
		if err := json.Unmarshal([]byte(s), p.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
		}
		return p.Elem(), nil
	}
}

func text(src any) (string, bool) {
	switch v := src.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func overflow(src any, dst reflect.Type) error {
	return fmt.Errorf("%w: %v overflows %s", ErrUnsupportedConversion, src, dst)
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
