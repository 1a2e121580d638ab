package result

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrMapping matches every MappingError.
var ErrMapping = errors.New("mapping error")

// MappingError reports a column that has no target field in strict mode,
// or a column value that cannot be converted to its field.
type MappingError struct {
	Column string
	Field  string
	Target reflect.Type
	Reason string
	Err    error
}

func (e *MappingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "map column %q", e.Column)
	if e.Field != "" {
		fmt.Fprintf(&b, " to %s.%s", typeName(e.Target), e.Field)
	} else if e.Target != nil {
		fmt.Fprintf(&b, " to %s", typeName(e.Target))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MappingError) Unwrap() error { return e.Err }

func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
