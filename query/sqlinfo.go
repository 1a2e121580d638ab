package query

import "slices"

// NamedParameter is a parameter name together with every 1-based
// placeholder position it occupies in the normalized SQL.
type NamedParameter struct {
	Name      string
	Positions []int
}

// SQLInfo is the immutable result of parsing a template. It is safe to
// share between goroutines.
type SQLInfo struct {
	original   string
	normalized string
	params     []*NamedParameter
	index      map[string]int
	count      int
}

// Original returns the template text as written.
func (s *SQLInfo) Original() string { return s.original }

// Normalized returns the driver-executable SQL.
func (s *SQLInfo) Normalized() string { return s.normalized }

// Count returns the number of placeholders in the normalized SQL.
func (s *SQLInfo) Count() int { return s.count }

// Len returns the number of distinct parameter names.
func (s *SQLInfo) Len() int { return len(s.params) }

// Has reports whether name is a parameter of the template.
func (s *SQLInfo) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Parameter returns a copy of the named parameter.
func (s *SQLInfo) Parameter(name string) (NamedParameter, bool) {
	idx, ok := s.index[name]
	if !ok {
		return NamedParameter{}, false
	}
	return s.params[idx].clone(), true
}

// Parameters returns copies of all parameters in order of first appearance.
func (s *SQLInfo) Parameters() []NamedParameter {
	out := make([]NamedParameter, len(s.params))
	for i, p := range s.params {
		out[i] = p.clone()
	}
	return out
}

// Names returns the parameter names in order of first appearance.
func (s *SQLInfo) Names() []string {
	out := make([]string, len(s.params))
	for i, p := range s.params {
		out[i] = p.Name
	}
	return out
}

// Each calls fn for every parameter without copying positions.
// fn must not modify the slice.
func (s *SQLInfo) Each(fn func(name string, positions []int)) {
	for _, p := range s.params {
		fn(p.Name, p.Positions)
	}
}

func (p *NamedParameter) clone() NamedParameter {
	return NamedParameter{Name: p.Name, Positions: slices.Clone(p.Positions)}
}
