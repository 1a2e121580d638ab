package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Konsultn-Engineering/namedsql/bind"
	"github.com/Konsultn-Engineering/namedsql/cache"
	"github.com/Konsultn-Engineering/namedsql/database"
	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/Konsultn-Engineering/namedsql/result"
	"github.com/Konsultn-Engineering/namedsql/schema"
	"github.com/Konsultn-Engineering/namedsql/utils"
)

// Engine owns the shared state of one database: dialect, template
// cache, planners and default policies. It is safe for concurrent use;
// Sessions created from it are not.
type Engine struct {
	db        database.Database
	dialect   dialect.Dialect
	templates *cache.TemplateCache
	info      *bind.Info
	mapper    schema.NameMapper
	strict    bool
	schema    *schema.Context
	logger    Logger
	stmtCache int
	chunkSize int
	commit    bool

	planners sync.Map // plannerKey -> *result.Planner
}

type plannerKey struct {
	mapper schema.NameMapper
	strict bool
}

// New creates an engine over db. Without WithDialect the engine speaks
// PostgreSQL.
func New(db database.Database, opts ...Option) *Engine {
	e := &Engine{
		db:        db,
		info:      bind.Default,
		mapper:    schema.LooseMapper{},
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dialect == nil {
		e.dialect = dialect.NewPostgresDialect()
	}
	if e.templates == nil {
		e.templates = cache.NewTemplateCache()
	}
	if e.info == nil {
		e.info = bind.Default
	}
	if e.schema == nil {
		e.schema = schema.New()
	} else {
		e.info = e.info.With(bind.WithSchema(e.schema))
	}
	return e
}

// DB returns the underlying database.
func (e *Engine) DB() database.Database { return e.db }

// Dialect returns the engine's dialect.
func (e *Engine) Dialect() dialect.Dialect { return e.dialect }

// Templates returns the template cache.
func (e *Engine) Templates() *cache.TemplateCache { return e.templates }

// BindInfo returns the default binding policy.
func (e *Engine) BindInfo() *bind.Info { return e.info }

// Schema returns the metadata context used for generated statements.
func (e *Engine) Schema() *schema.Context { return e.schema }

// Planner returns the shared planner for mapper under the engine's
// strictness. mapper must be comparable; nil means the engine default.
func (e *Engine) Planner(mapper schema.NameMapper) *result.Planner {
	if mapper == nil {
		mapper = e.mapper
	}
	key := plannerKey{mapper: mapper, strict: e.strict}
	if p, ok := e.planners.Load(key); ok {
		return p.(*result.Planner)
	}
	p, _ := e.planners.LoadOrStore(key, result.NewPlanner(
		result.WithNameMapper(mapper),
		result.WithStrict(e.strict),
		result.WithSchema(e.schema),
	))
	return p.(*result.Planner)
}

// Exec runs a template without parameters, such as DDL, directly on the
// database and returns the affected row count.
func (e *Engine) Exec(ctx context.Context, text string) (int64, error) {
	s := e.SQL(text)
	info, err := s.Parse()
	if err != nil {
		return 0, err
	}
	if info.Len() > 0 {
		return 0, &bind.BindingError{
			Template: text,
			Names:    info.Names(),
			Reason:   "Exec does not take parameters",
		}
	}

	start := time.Now()
	res, err := e.db.ExecContext(ctx, info.Normalized())
	e.log(ctx, Info{Kind: "exec", Template: text, SQL: info.Normalized(), Duration: time.Since(start), Err: err})
	if err != nil {
		return 0, &ExecutionError{Op: "exec", Template: text, SQL: info.Normalized(), Err: err}
	}
	return rowsAffected(res, text, info.Normalized())
}

// policy keys the template cache by dialect and binding policy family.
// Infos derived per call with With share their base's entries.
type policy struct {
	d    dialect.Dialect
	info *bind.Info
}

func (p policy) ID() uint64               { return utils.Mix64(utils.U64(p.d.Name()), p.info.Family()) }
func (p policy) Dialect() dialect.Dialect { return p.d }

func rowsAffected(res database.Result, template, sql string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &ExecutionError{Op: "rows affected", Template: template, SQL: sql, Err: err}
	}
	return n, nil
}
