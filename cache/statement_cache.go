package cache

import (
	"errors"
	"sync"

	"github.com/Konsultn-Engineering/namedsql/database"
	lru "github.com/hashicorp/golang-lru/v2"
)

// StatementCache keeps idle prepared statements for reuse, keyed by
// their normalized SQL text. A statement
// is checked out with Take and handed back with Put; while checked out
// it cannot be evicted. Evicted and purged statements are closed.
//
// Not safe for use by more than one session at a time.
type StatementCache struct {
	cache *lru.Cache[string, database.Stmt]
	mu    sync.Mutex

	taking bool    // suppresses close while Take removes an entry
	errs   []error // close errors collected during eviction
}

func NewStatementCache(size int) (*StatementCache, error) {
	s := &StatementCache{}
	cache, err := lru.NewWithEvict(size, func(_ string, stmt database.Stmt) {
		if s.taking {
			return
		}
		if err := stmt.Close(); err != nil {
			s.errs = append(s.errs, err)
		}
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Take removes and returns the idle statement prepared for sql.
func (s *StatementCache) Take(sql string) (database.Stmt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, ok := s.cache.Peek(sql)
	if !ok {
		return nil, false
	}
	s.taking = true
	s.cache.Remove(sql)
	s.taking = false
	return stmt, true
}

// Put hands stmt back. If an idle statement for sql already exists,
// stmt is closed instead.
func (s *StatementCache) Put(sql string, stmt database.Stmt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.Contains(sql) {
		return stmt.Close()
	}
	s.cache.Add(sql, stmt)
	return s.drain()
}

// Len returns the number of idle statements.
func (s *StatementCache) Len() int {
	return s.cache.Len()
}

// Close closes every idle statement.
func (s *StatementCache) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Purge() // closes through the evict callback
	return s.drain()
}

func (s *StatementCache) drain() error {
	err := errors.Join(s.errs...)
	s.errs = nil
	return err
}
