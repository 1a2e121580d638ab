package result

import (
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/namedsql/cache"
	"github.com/Konsultn-Engineering/namedsql/schema"
)

// PlanKey identifies a cached plan: the target type and whether only
// the first column is read.
type PlanKey struct {
	Type   reflect.Type
	Scalar bool
}

// PlanCache holds one plan per target, replaced when the column
// signature changes.
type PlanCache = cache.PlanCache[PlanKey, *Plan]

func NewPlanCache() *PlanCache {
	return cache.NewPlanCache[PlanKey, *Plan]()
}

// Planner builds and caches materialization plans. It is safe for
// concurrent use.
type Planner struct {
	mapper schema.NameMapper
	strict bool
	plans  *PlanCache
	schema *schema.Context
}

type PlannerOption func(*Planner)

// WithNameMapper sets the column to field matching. The default is
// schema.LooseMapper.
func WithNameMapper(m schema.NameMapper) PlannerOption {
	return func(p *Planner) { p.mapper = m }
}

// WithStrict makes a column without a matching field an error.
func WithStrict(strict bool) PlannerOption {
	return func(p *Planner) { p.strict = strict }
}

// WithPlanCache shares a plan cache between planners with the same
// mapper and strictness.
func WithPlanCache(c *PlanCache) PlannerOption {
	return func(p *Planner) { p.plans = c }
}

// WithSchema sets the metadata context used to read target structs.
func WithSchema(c *schema.Context) PlannerOption {
	return func(p *Planner) { p.schema = c }
}

func NewPlanner(opts ...PlannerOption) *Planner {
	p := &Planner{mapper: schema.LooseMapper{}}
	for _, opt := range opts {
		opt(p)
	}
	if p.plans == nil {
		p.plans = NewPlanCache()
	}
	return p
}

// Cache returns the planner's plan cache.
func (p *Planner) Cache() *PlanCache { return p.plans }

// Plan returns the plan mapping columns onto target. Struct targets are
// matched through the name mapper, *Row and Row keep every label and any
// other type reads the first column.
func (p *Planner) Plan(columns []string, target reflect.Type) (*Plan, error) {
	return p.plan(columns, target, target != rowType && target != rowPtrType && schema.IsScalar(target))
}

// PlanScalar returns a plan reading the first column as target.
func (p *Planner) PlanScalar(columns []string, target reflect.Type) (*Plan, error) {
	return p.plan(columns, target, true)
}

func (p *Planner) plan(columns []string, target reflect.Type, scalar bool) (*Plan, error) {
	sig := strings.Join(columns, "\x1f")
	return p.plans.Get(PlanKey{Type: target, Scalar: scalar}, sig, func() (*Plan, error) {
		cols := append([]string(nil), columns...)
		switch {
		case scalar:
			return buildScalar(cols, target)
		case target == rowType || target == rowPtrType:
			return &Plan{kind: rowPlan, target: target, columns: cols}, nil
		}
		return p.buildStruct(cols, target)
	})
}

func buildScalar(columns []string, target reflect.Type) (*Plan, error) {
	if len(columns) == 0 {
		return nil, &MappingError{Target: target, Reason: "result has no columns"}
	}
	return &Plan{
		kind:    scalarPlan,
		target:  target,
		columns: columns,
		convert: schema.ConverterFor(target),
	}, nil
}

func (p *Planner) buildStruct(columns []string, target reflect.Type) (*Plan, error) {
	if target.Kind() != reflect.Struct {
		return nil, &MappingError{Target: target, Reason: "target must be a struct, *Row or a scalar"}
	}
	var (
		meta *schema.EntityMeta
		err  error
	)
	if p.schema != nil {
		meta, err = p.schema.Introspect(target)
	} else {
		meta, err = schema.Introspect(target)
	}
	if err != nil {
		return nil, &MappingError{Target: target, Err: err}
	}

	byKey := make(map[string]*schema.FieldMeta, len(meta.Fields))
	for _, f := range meta.Fields {
		name := f.Name
		if f.Tag.Explicit {
			name = f.Column
		}
		key := p.mapper.Key(name)
		if _, dup := byKey[key]; !dup {
			byKey[key] = f
		}
	}

	plan := &Plan{
		kind:    structPlan,
		target:  target,
		columns: columns,
		fields:  make([]*schema.FieldMeta, len(columns)),
	}
	for i, label := range columns {
		f, ok := byKey[p.mapper.Key(label)]
		if !ok {
			if p.strict {
				return nil, &MappingError{Column: label, Target: target, Reason: "no matching field"}
			}
			continue
		}
		plan.fields[i] = f
	}
	return plan, nil
}
