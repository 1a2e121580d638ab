package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Konsultn-Engineering/namedsql/bind"
	"github.com/Konsultn-Engineering/namedsql/database"
	"github.com/Konsultn-Engineering/namedsql/schema"
)

// ErrNestedTx is returned for a per-chunk-commit batch on a session that
// already runs inside a transaction.
var ErrNestedTx = errors.New("per-chunk commit on a transaction-bound session")

// BatchInsert writes slices of T as multi-row INSERT statements, one
// statement per chunk. T is a struct or a pointer to a struct.
type BatchInsert[T any] struct {
	sess *Session
	cfg  *insertConfig
	plan *insertPlan
	info *bind.Info
	head string
}

// NewBatchInsert prepares a batch insert of T on sess. Chunk size and
// per-chunk commit default to the engine's batch settings.
func NewBatchInsert[T any](sess *Session, opts ...InsertOption) (*BatchInsert[T], error) {
	e := sess.e
	cfg := newInsertConfig(e, opts)
	if *cfg.commit && sess.tx != nil {
		return nil, ErrNestedTx
	}
	p, err := cfg.plan(e, reflect.TypeFor[T]())
	if err != nil {
		return nil, &bind.BindingError{Reason: "cannot generate INSERT", Err: err}
	}
	info := e.info
	if len(cfg.transformers) > 0 {
		info = info.With(cfg.transformers...)
	}
	return &BatchInsert[T]{sess: sess, cfg: cfg, plan: p, info: info, head: p.head(e)}, nil
}

// Table returns the target table.
func (b *BatchInsert[T]) Table() string { return b.plan.table }

// Columns returns the written columns in statement order.
func (b *BatchInsert[T]) Columns() []string { return b.plan.columns }

// Insert writes rows and returns the number of inserted rows.
func (b *BatchInsert[T]) Insert(ctx context.Context, rows []T) (int64, error) {
	n, _, err := b.run(ctx, rows, nil)
	return n, err
}

// InsertAndGetIDs writes rows and returns the generated value of
// keyField for every row, in row order.
func (b *BatchInsert[T]) InsertAndGetIDs(ctx context.Context, rows []T, keyField string) ([]int64, error) {
	key, err := b.keyField(keyField)
	if err != nil {
		return nil, err
	}
	_, keys, err := b.run(ctx, rows, key)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(keys))
	for i, k := range keys {
		if ids[i], err = schema.Convert[int64](k); err != nil {
			return nil, &ExecutionError{Op: "generated key", Err: fmt.Errorf("row %d: %w", i, err)}
		}
	}
	return ids, nil
}

// InsertAndSetIDs writes rows and stores the generated keys into their
// keyField.
func (b *BatchInsert[T]) InsertAndSetIDs(ctx context.Context, rows []T, keyField string) error {
	key, err := b.keyField(keyField)
	if err != nil {
		return err
	}
	_, keys, err := b.run(ctx, rows, key)
	if err != nil {
		return err
	}
	for i, k := range keys {
		elem, err := element(rows, i)
		if err != nil {
			return err
		}
		if err := key.Set(elem, k); err != nil {
			return &ExecutionError{Op: "generated key", Err: fmt.Errorf("row %d %s: %w", i, key.Name, err)}
		}
	}
	return nil
}

func (b *BatchInsert[T]) keyField(name string) (*schema.FieldMeta, error) {
	f, ok := b.plan.meta.Field(name)
	if !ok {
		return nil, &bind.BindingError{Names: []string{name}, Reason: "no such key field"}
	}
	return f, nil
}

func element[T any](rows []T, i int) (reflect.Value, error) {
	v := reflect.ValueOf(rows).Index(i)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, &bind.BindingError{Reason: fmt.Sprintf("row %d is nil", i)}
		}
		v = v.Elem()
	}
	return v, nil
}

// run executes the chunks in order. With a key field every chunk
// collects the generated keys of its rows.
func (b *BatchInsert[T]) run(ctx context.Context, rows []T, key *schema.FieldMeta) (int64, []any, error) {
	if b.sess.closed {
		return 0, nil, &StateError{Op: "insert on", State: StateClosed}
	}
	var (
		total int64
		keys  []any
		size  = b.cfg.chunkSize
	)
	for chunk, lo := 1, 0; lo < len(rows); chunk, lo = chunk+1, lo+size {
		hi := min(lo+size, len(rows))
		n, chunkKeys, err := b.chunk(ctx, rows, lo, hi, key)
		if err != nil {
			return total, keys, &ChunkError{Chunk: chunk, Rows: hi - lo, Committed: total, Err: err}
		}
		total += n
		keys = append(keys, chunkKeys...)
	}
	return total, keys, nil
}

func (b *BatchInsert[T]) chunk(ctx context.Context, rows []T, lo, hi int, key *schema.FieldMeta) (int64, []any, error) {
	text, err := b.render(rows, lo, hi, key)
	if err != nil {
		return 0, nil, err
	}
	e := b.sess.e
	useReturning := key != nil && e.dialect.SupportsReturning()

	exec := b.sess.exec
	var tx database.Tx
	if *b.cfg.commit {
		if tx, err = e.db.BeginTx(ctx, nil); err != nil {
			return 0, nil, &ExecutionError{Op: "begin", SQL: text, Err: err}
		}
		exec = tx
	}

	start := time.Now()
	var (
		n    int64
		keys []any
	)
	if useReturning {
		keys, err = returningKeys(ctx, exec, text)
		n = int64(len(keys))
	} else {
		n, keys, err = b.execChunk(ctx, exec, text, hi-lo, key != nil)
	}
	if err == nil && tx != nil {
		err = tx.Commit(ctx)
		if err != nil {
			err = fmt.Errorf("commit: %w", err)
		}
	}
	e.log(ctx, Info{Kind: "batch", SQL: text, Duration: time.Since(start), Err: err})
	if err != nil {
		if tx != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
		}
		return 0, nil, &ExecutionError{Op: "batch insert", SQL: text, Err: err}
	}
	return n, keys, nil
}

// render builds the chunk's statement with every value inlined as a
// literal. Zero generator fields are filled first.
func (b *BatchInsert[T]) render(rows []T, lo, hi int, key *schema.FieldMeta) (string, error) {
	q := b.sess.e.dialect
	var sb strings.Builder
	sb.WriteString(b.head)
	for i := lo; i < hi; i++ {
		elem, err := element(rows, i)
		if err != nil {
			return "", err
		}
		if err := fillFields(b.plan.meta, elem); err != nil {
			return "", &bind.BindingError{Reason: fmt.Sprintf("row %d: cannot generate key", i), Err: err}
		}
		owner := elem.Addr().Interface()
		if i > lo {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, f := range b.plan.fields {
			if j > 0 {
				sb.WriteString(", ")
			}
			lit, err := b.info.Literal(owner, f.Name, f.Get(elem), q)
			if err != nil {
				return "", &bind.BindingError{Names: []string{f.Name}, Reason: fmt.Sprintf("row %d", i), Err: err}
			}
			sb.WriteString(lit)
		}
		sb.WriteByte(')')
	}
	if key != nil && q.SupportsReturning() {
		sb.WriteString(" RETURNING ")
		sb.WriteString(q.QuoteIdentifier(key.Column))
	}
	return sb.String(), nil
}

// execChunk runs a chunk without RETURNING. Keys, when wanted, follow
// LastInsertId: the first id of a multi-row insert, incremented per row.
func (b *BatchInsert[T]) execChunk(ctx context.Context, exec database.Executor, text string, rows int, wantKeys bool) (int64, []any, error) {
	res, err := exec.ExecContext(ctx, text)
	if err != nil {
		return 0, nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil, err
	}
	if !wantKeys {
		return n, nil, nil
	}
	first, err := res.LastInsertId()
	if err != nil {
		return 0, nil, err
	}
	keys := make([]any, rows)
	for i := range keys {
		keys[i] = first + int64(i)
	}
	return n, keys, nil
}

func returningKeys(ctx context.Context, exec database.Executor, text string) ([]any, error) {
	rows, err := exec.QueryContext(ctx, text)
	if err != nil {
		return nil, err
	}
	var keys []any
	for rows.Next() {
		var k any
		if err = rows.Scan(&k); err != nil {
			break
		}
		keys = append(keys, k)
	}
	return keys, errors.Join(err, rows.Err(), rows.Close())
}
