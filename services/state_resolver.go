package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"linear-board-sync/models"
)

// StatusIndex maps workflow state names to their Linear ids
type StatusIndex map[string]string

// BuildStatusIndex indexes states by name. When two states share a name the
// one enumerated last wins.
func BuildStatusIndex(states []models.WorkflowState) StatusIndex {
	index := make(StatusIndex, len(states))
	for _, state := range states {
		index[state.Name] = state.ID
	}
	return index
}

type statusSnapshot struct {
	index   StatusIndex
	builtAt time.Time
}

// StatusCache holds the current StatusIndex. Snapshots are swapped in whole,
// so readers never observe a partially built index.
//
// A zero TTL scopes the index to a single request: it stays valid until
// Invalidate is called, which the router does before every update.
type StatusCache struct {
	ttl     time.Duration
	now     func() time.Time
	current atomic.Pointer[statusSnapshot]
}

// NewStatusCache creates an empty cache with the given lifetime
func NewStatusCache(ttl time.Duration) *StatusCache {
	return &StatusCache{
		ttl: ttl,
		now: time.Now,
	}
}

// PerRequest reports whether the index must be rebuilt for every request
func (c *StatusCache) PerRequest() bool {
	return c.ttl <= 0
}

// Get returns the cached index if one is present and not expired
func (c *StatusCache) Get() (StatusIndex, bool) {
	snapshot := c.current.Load()
	if snapshot == nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(snapshot.builtAt) >= c.ttl {
		return nil, false
	}
	return snapshot.index, true
}

// Store replaces the cached index
func (c *StatusCache) Store(index StatusIndex) {
	c.current.Store(&statusSnapshot{index: index, builtAt: c.now()})
}

// Invalidate drops the cached index
func (c *StatusCache) Invalidate() {
	c.current.Store(nil)
}

// StateResolver translates workflow state names into Linear ids
type StateResolver interface {
	// Resolve returns the id of the workflow state called name
	Resolve(ctx context.Context, name string) (string, error)

	// Invalidate forces the next Resolve to rebuild the index
	Invalidate()
}

// StateResolverImpl implements the StateResolver interface
type StateResolverImpl struct {
	linearService LinearService
	cache         *StatusCache
	builds        singleflight.Group
	logger        *zap.Logger
}

// NewStateResolver creates a new StateResolver backed by the given cache
func NewStateResolver(linearService LinearService, cache *StatusCache, logger *zap.Logger) StateResolver {
	return &StateResolverImpl{
		linearService: linearService,
		cache:         cache,
		logger:        logger,
	}
}

// Resolve returns the id of the workflow state called name, building the index first if needed
func (r *StateResolverImpl) Resolve(ctx context.Context, name string) (string, error) {
	index, err := r.index(ctx)
	if err != nil {
		return "", err
	}

	id, ok := index[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrStatusNotFound, name)
	}
	return id, nil
}

// Invalidate drops the cached index
func (r *StateResolverImpl) Invalidate() {
	r.cache.Invalidate()
}

// index returns the cached index or builds it. Concurrent cold-cache callers
// share one enumeration query; the query is detached from any single caller's
// cancellation and each caller stops waiting when its own context ends.
func (r *StateResolverImpl) index(ctx context.Context) (StatusIndex, error) {
	if index, ok := r.cache.Get(); ok {
		return index, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	results := r.builds.DoChan("workflowStates", func() (interface{}, error) {
		if index, ok := r.cache.Get(); ok {
			return index, nil
		}

		// Bounded by the HTTP client timeout
		states, err := r.linearService.ListWorkflowStates(buildCtx)
		if err != nil {
			return nil, err
		}

		index := BuildStatusIndex(states)
		r.cache.Store(index)
		r.logger.Debug("Built workflow state index", zap.Int("states", len(states)), zap.Int("names", len(index)))
		return index, nil
	})

	select {
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		if result.Shared {
			r.logger.Debug("Shared workflow state index build")
		}
		return result.Val.(StatusIndex), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
