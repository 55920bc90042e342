// Package enumerate discovers the live set of entities of one kind from an
// ID-indexed store that has no "list all" primitive. Two scanning strategies
// exist and they are not interchangeable: a kind is either sentinel-terminated
// or counter-bounded, never both.
package enumerate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/logger"
)

// FetchFunc fetches and reconciles the entity at one index. It returns
// domain.ErrAbsent when the slot holds the kind's sentinel tuple; any other
// error is a transport failure.
type FetchFunc[T any] func(ctx context.Context, id uint64) (*T, error)

// CountFunc reads the kind's monotonic counter from the store
type CountFunc func(ctx context.Context) (uint64, error)

// Strategy enumerates one entity kind. Enumeration is finite and not
// restartable: each call rescans from the strategy's first index.
type Strategy[T any] interface {
	Enumerate(ctx context.Context, fetch FetchFunc[T]) ([]*T, error)
}

// SentinelScan scans sequential indices starting at First and stops at the
// first sentinel. Valid entities are assumed contiguous: a sentinel means
// end-of-data, not a hole to skip over. A transport failure on a single index
// is the one tolerated gap; the slot is treated as "nonexistent yet" and the
// scan continues. A pass where every inspected index failed transport-wise
// returns an error: an all-failure scan means the store is unreachable, not
// empty.
type SentinelScan[T any] struct {
	First    uint64
	MaxCount int
}

func (s SentinelScan[T]) Enumerate(ctx context.Context, fetch FetchFunc[T]) ([]*T, error) {
	out := make([]*T, 0, s.MaxCount)
	var failed int
	var lastErr error
	for i := 0; i < s.MaxCount; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		id := s.First + uint64(i)
		entity, err := fetch(ctx, id)
		switch {
		case err == nil:
			out = append(out, entity)
		case errors.Is(err, domain.ErrAbsent):
			return out, allFailed(out, failed, lastErr)
		default:
			failed++
			lastErr = err
			logger.WarnCtx(ctx, "Skipping index after transport failure",
				zap.Uint64("id", id),
				zap.Error(err),
			)
		}
	}
	return out, allFailed(out, failed, lastErr)
}

// allFailed distinguishes "the store is empty" from "the store never
// answered": zero successes alongside at least one transport failure is a
// scan failure, not an empty result.
func allFailed[T any](out []*T, failed int, lastErr error) error {
	if len(out) == 0 && failed > 0 {
		return fmt.Errorf("no indices readable after %d transport failures: %w", failed, lastErr)
	}
	return nil
}

// CountedScan bounds itself to [First, First+count) using the store's
// monotonic counter. A failure on a mid-range index is presumed transient
// (the counter says the slot is populated) and the index is skipped.
type CountedScan[T any] struct {
	First uint64
	Count CountFunc
}

// preallocCap bounds counter-driven slice preallocation. The counter is
// remote input and must not size memory before the first fetch succeeds.
const preallocCap = 1024

func (s CountedScan[T]) Enumerate(ctx context.Context, fetch FetchFunc[T]) ([]*T, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	prealloc := count
	if prealloc > preallocCap {
		prealloc = preallocCap
	}
	out := make([]*T, 0, prealloc)
	for i := uint64(0); i < count; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		id := s.First + i
		entity, err := fetch(ctx, id)
		switch {
		case err == nil:
			out = append(out, entity)
		case errors.Is(err, domain.ErrAbsent):
			// The counter claims this slot exists; treat the sentinel as a
			// removed entity and keep scanning.
			logger.DebugCtx(ctx, "Counted slot holds sentinel", zap.Uint64("id", id))
		default:
			logger.WarnCtx(ctx, "Skipping counted index after transport failure",
				zap.Uint64("id", id),
				zap.Error(err),
			)
		}
	}
	return out, nil
}
