package result

import "reflect"

var (
	rowType    = reflect.TypeOf(Row{})
	rowPtrType = reflect.TypeOf(&Row{})
)

// Row is one result row keyed by column label, in column order. Labels
// are kept verbatim; when a label repeats, Get returns the first one.
type Row struct {
	keys   []string
	values []any
	index  map[string]int
}

func newRow(keys []string, values []any) *Row {
	r := &Row{
		keys:   keys,
		values: make([]any, len(values)),
		index:  make(map[string]int, len(keys)),
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok && b != nil {
			v = append([]byte(nil), b...)
		}
		r.values[i] = v
		if _, dup := r.index[keys[i]]; !dup {
			r.index[keys[i]] = i
		}
	}
	return r
}

// Keys returns the column labels in order.
func (r *Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value of the column labelled key.
func (r *Row) Get(key string) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Index returns the value of the i-th column.
func (r *Row) Index(i int) any {
	return r.values[i]
}

func (r *Row) Len() int { return len(r.keys) }

// Map copies the row into a map. Repeated labels keep the first value.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.index))
	for k, i := range r.index {
		m[k] = r.values[i]
	}
	return m
}
