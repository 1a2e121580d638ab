package engine

import (
	"context"
	"log"
	"time"
)

// Info describes one parse, statement execution or batch chunk.
type Info struct {
	Kind     string // parse, query, update, insert, batch, exec, commit
	Template string
	SQL      string
	Args     []any
	Duration time.Duration
	Err      error
	Cached   bool // the prepared statement came from the session cache
}

// Logger receives an Info after every operation.
type Logger func(ctx context.Context, info Info)

var defaultLogger = log.New(log.Writer(), "[namedsql] ", log.Flags())

// DebugLogger prints every Info to l, or to a "[namedsql] " prefixed
// standard logger when l is nil.
func DebugLogger(l *log.Logger) Logger {
	if l == nil {
		l = defaultLogger
	}
	return func(_ context.Context, info Info) {
		if info.Err != nil {
			l.Printf("%s %s %v %v err=%v", info.Kind, info.SQL, info.Args, info.Duration, info.Err)
			return
		}
		l.Printf("%s %s %v %v", info.Kind, info.SQL, info.Args, info.Duration)
	}
}

func (e *Engine) log(ctx context.Context, info Info) {
	if e.logger != nil {
		e.logger(ctx, info)
	}
}
