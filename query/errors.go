package query

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("namedsql: malformed template")

// ParseError reports a malformed template.
type ParseError struct {
	Template string
	Offset   int
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("namedsql: %s at offset %d in %q", e.Reason, e.Offset, snippet(e.Template, e.Offset))
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// snippet returns up to 40 bytes of text starting at offset.
func snippet(text string, offset int) string {
	if offset < 0 || offset > len(text) {
		return text
	}
	end := offset + 40
	if end > len(text) {
		end = len(text)
	}
	return text[offset:end]
}
