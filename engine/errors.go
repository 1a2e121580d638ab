package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrExecution matches every ExecutionError.
	ErrExecution = errors.New("execution error")
	// ErrState matches every StateError.
	ErrState = errors.New("invalid statement state")
)

// ExecutionError wraps a driver failure together with the statement
// that caused it.
type ExecutionError struct {
	Op       string // prepare, query, exec, begin, commit
	Template string
	SQL      string
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Template != "" && e.Template != e.SQL {
		return fmt.Sprintf("%s %q (%s): %v", e.Op, e.Template, e.SQL, e.Err)
	}
	if e.SQL != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.SQL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

// StateError reports an operation that the statement's current state
// does not allow.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s a %s statement", e.Op, e.State)
}

func (e *StateError) Is(target error) bool {
	return target == ErrState
}

// ChunkError reports the batch-insert chunk that failed. Chunk is
// 1-based; Committed counts the rows of earlier chunks that were
// committed before the failure.
type ChunkError struct {
	Chunk     int
	Rows      int
	Committed int64
	Err       error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("batch insert chunk %d (%d rows, %d committed before): %v", e.Chunk, e.Rows, e.Committed, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }
