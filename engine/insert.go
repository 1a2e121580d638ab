package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/Konsultn-Engineering/namedsql/bind"
	"github.com/Konsultn-Engineering/namedsql/schema"
)

var returningClause = regexp.MustCompile(`(?is)\bRETURNING\s+[^;]+;?\s*$`)

// Insert is a prepared INSERT. It may be executed again after Reset.
type Insert struct {
	*statement
	rec      reflect.Value
	keyField *schema.FieldMeta
}

// SetRecord binds the fields of rec. Zero fields tagged with a generator
// are filled first when rec is a pointer.
func (i *Insert) SetRecord(rec any) error {
	if err := i.bindable("bind"); err != nil {
		return err
	}
	if err := fillGenerated(i.sql.info, rec); err != nil {
		return &bind.BindingError{Template: i.sql.text, Reason: "cannot generate key", Err: err}
	}
	return i.statement.SetRecord(rec)
}

// BindRecord binds rec like SetRecord and writes the generated key into
// its field keyField after ExecuteAndGetID. rec must be a pointer to a
// struct.
func (i *Insert) BindRecord(rec any, keyField string) error {
	rv := reflect.ValueOf(rec)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return &bind.BindingError{Template: i.sql.text, Reason: "BindRecord requires a non-nil pointer to a struct"}
	}
	meta, err := i.sql.info.Introspect(rv.Type())
	if err != nil {
		return &bind.BindingError{Template: i.sql.text, Reason: "cannot read record", Err: err}
	}
	f, ok := meta.Field(keyField)
	if !ok {
		return &bind.BindingError{Template: i.sql.text, Names: []string{keyField}, Reason: "no such key field"}
	}
	if err := i.SetRecord(rec); err != nil {
		return err
	}
	i.rec, i.keyField = rv.Elem(), f
	return nil
}

// Execute runs the insert and returns the number of inserted rows.
func (i *Insert) Execute(ctx context.Context) (int64, error) {
	res, err := i.exec(ctx)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res, i.sql.text, i.info.Normalized())
}

// ExecuteAndGetID runs the insert and returns the generated key as an
// int64. See ExecuteAndGetKey.
func (i *Insert) ExecuteAndGetID(ctx context.Context) (int64, error) {
	key, err := i.ExecuteAndGetKey(ctx)
	if err != nil {
		return 0, err
	}
	id, err := schema.Convert[int64](key)
	if err != nil {
		return 0, i.execError("generated key", err)
	}
	return id, nil
}

// ExecuteAndGetKey runs the insert and returns the generated key. When
// the dialect supports it and the template ends with a RETURNING clause,
// the key is the first returned column; otherwise it is LastInsertId.
// A record bound with BindRecord receives the key.
func (i *Insert) ExecuteAndGetKey(ctx context.Context) (any, error) {
	var (
		key any
		err error
	)
	if i.sess.e.dialect.SupportsReturning() && returningClause.MatchString(i.info.Normalized()) {
		key, err = i.returning(ctx)
	} else {
		key, err = i.lastInsertID(ctx)
	}
	if err != nil {
		return nil, err
	}
	if i.keyField != nil {
		if err := i.keyField.Set(i.rec, key); err != nil {
			return nil, i.execError("generated key", fmt.Errorf("%s: %w", i.keyField.Name, err))
		}
	}
	return key, nil
}

func (i *Insert) returning(ctx context.Context) (any, error) {
	rows, err := i.query(ctx)
	if err != nil {
		return nil, err
	}
	var key any
	found := rows.Next()
	if found {
		err = rows.Scan(&key)
	}
	err = errors.Join(err, rows.Err(), rows.Close())
	if err != nil {
		return nil, i.execError("returning", err)
	}
	if !found {
		return nil, i.execError("returning", sql.ErrNoRows)
	}
	return key, nil
}

func (i *Insert) lastInsertID(ctx context.Context) (any, error) {
	res, err := i.exec(ctx)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, i.execError("last insert id", err)
	}
	return id, nil
}

// Reset clears the bound values and record so the insert can run again.
func (i *Insert) Reset() error {
	if err := i.resetBindings(); err != nil {
		return err
	}
	i.rec, i.keyField = reflect.Value{}, nil
	return nil
}

// fillGenerated sets zero generator-tagged fields of rec. Records that
// are not pointers to structs are left alone.
func fillGenerated(info *bind.Info, rec any) error {
	rv := reflect.ValueOf(rec)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	meta, err := info.Introspect(rv.Type())
	if err != nil {
		return err
	}
	return fillFields(meta, rv.Elem())
}

func fillFields(meta *schema.EntityMeta, v reflect.Value) error {
	for _, f := range meta.Fields {
		if f.Generator == nil || !f.IsZero(v) {
			continue
		}
		id, err := f.Generator.Generate()
		if err != nil {
			return err
		}
		if err := f.Set(v, id); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}
