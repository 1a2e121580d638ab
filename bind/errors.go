package bind

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBinding matches every BindingError.
var ErrBinding = errors.New("binding error")

// BindingError reports a value that could not be bound: an unknown or
// missing parameter, an unsupported value or a failed conversion.
type BindingError struct {
	Template string
	Names    []string
	Reason   string
	Err      error
}

func (e *BindingError) Error() string {
	var b strings.Builder
	b.WriteString("bind: ")
	b.WriteString(e.Reason)
	if len(e.Names) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Names, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *BindingError) Unwrap() error { return e.Err }

func (e *BindingError) Is(target error) bool {
	return target == ErrBinding
}
