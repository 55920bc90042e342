// Package compose builds derived views that span many parents, one fetch per
// parent, concurrently. A parent whose fetch fails contributes zero children
// and a recorded failure; it never sinks the whole view.
package compose

import (
	"context"
	"sort"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/agora-social/agora-sync/internal/logger"
)

// DefaultWorkers bounds per-view concurrency when the caller passes none
const DefaultWorkers = 8

// ChildFetch loads the children of one parent
type ChildFetch[P, C any] func(ctx context.Context, parent P) ([]C, error)

// Failure records one parent whose children could not be loaded
type Failure[P any] struct {
	Parent P
	Err    error
}

// View is the merged outcome of one composition pass. Children holds every
// successfully fetched child in the composer's order; Failures names the
// parents that were skipped.
type View[P, C any] struct {
	Children []C
	Failures []Failure[P]
}

// Degraded reports whether any parent failed during composition
func (v *View[P, C]) Degraded() bool {
	return len(v.Failures) > 0
}

// Composer fans one fetch out across parents and merges the results
type Composer[P, C any] struct {
	workers        int
	limitPerParent int
	less           func(a, b C) bool
}

// New creates a composer. limitPerParent caps each parent's contribution
// before the merge (zero means unlimited); less orders the merged children.
func New[P, C any](workers, limitPerParent int, less func(a, b C) bool) *Composer[P, C] {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Composer[P, C]{
		workers:        workers,
		limitPerParent: limitPerParent,
		less:           less,
	}
}

// Across fetches children for every parent concurrently and merges them into
// a single ordered view. Failed parents are logged and recorded, never
// propagated: the view is always returned.
func (c *Composer[P, C]) Across(ctx context.Context, parents []P, fetch ChildFetch[P, C]) *View[P, C] {
	pool := pond.NewPool(c.workers, pond.WithContext(ctx))

	var mu sync.Mutex
	groups := make([][]C, 0, len(parents))
	failures := make([]Failure[P], 0)

	for _, parent := range parents {
		parent := parent
		pool.Submit(func() {
			children, err := fetch(ctx, parent)
			if err != nil {
				logger.WarnCtx(ctx, "Skipping parent in composed view",
					zap.Any("parent", parent),
					zap.Error(err),
				)
				mu.Lock()
				failures = append(failures, Failure[P]{Parent: parent, Err: err})
				mu.Unlock()
				return
			}
			if c.limitPerParent > 0 && len(children) > c.limitPerParent {
				children = children[:c.limitPerParent]
			}
			mu.Lock()
			groups = append(groups, children)
			mu.Unlock()
		})
	}
	pool.StopAndWait()

	merged := lo.Flatten(groups)
	if c.less != nil {
		sort.Slice(merged, func(i, j int) bool {
			return c.less(merged[i], merged[j])
		})
	}

	return &View[P, C]{Children: merged, Failures: failures}
}
