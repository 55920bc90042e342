package enumerate_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/enumerate"
	"github.com/agora-social/agora-sync/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type item struct {
	ID uint64
}

// storeFetch builds a FetchFunc over a fixed slot layout: present IDs return
// an item, failing IDs return a transport error, everything else is absent.
func storeFetch(present map[uint64]bool, failing map[uint64]bool) enumerate.FetchFunc[item] {
	return func(ctx context.Context, id uint64) (*item, error) {
		if failing[id] {
			return nil, fmt.Errorf("%w: connection reset", domain.ErrUnreachable)
		}
		if present[id] {
			return &item{ID: id}, nil
		}
		return nil, domain.ErrAbsent
	}
}

func ids(items []*item) []uint64 {
	out := make([]uint64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestSentinelScan_StopsAtSentinel(t *testing.T) {
	// Valid entities at 1,2,3 and a sentinel at 4: the result is exactly the
	// contiguous valid prefix, in index order.
	scan := enumerate.SentinelScan[item]{First: 1, MaxCount: 20}
	got, err := scan.Enumerate(context.Background(), storeFetch(
		map[uint64]bool{1: true, 2: true, 3: true},
		nil,
	))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids(got))
}

func TestSentinelScan_TransportFailureIsSkipped(t *testing.T) {
	// A transport failure at index 2 with valid entities at 1 and 3 does not
	// terminate enumeration: 2 is skipped, 3 is included.
	scan := enumerate.SentinelScan[item]{First: 1, MaxCount: 20}
	got, err := scan.Enumerate(context.Background(), storeFetch(
		map[uint64]bool{1: true, 2: true, 3: true},
		map[uint64]bool{2: true},
	))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, ids(got))
}

func TestSentinelScan_RespectsMaxCount(t *testing.T) {
	present := map[uint64]bool{}
	for id := uint64(1); id <= 50; id++ {
		present[id] = true
	}

	var highest uint64
	fetch := func(ctx context.Context, id uint64) (*item, error) {
		if id > highest {
			highest = id
		}
		return storeFetch(present, nil)(ctx, id)
	}

	scan := enumerate.SentinelScan[item]{First: 1, MaxCount: 5}
	got, err := scan.Enumerate(context.Background(), fetch)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	// Never inspects an index at or beyond First+MaxCount
	assert.Equal(t, uint64(5), highest)
}

func TestSentinelScan_ZeroMaxCount(t *testing.T) {
	scan := enumerate.SentinelScan[item]{First: 1, MaxCount: 0}
	var calls int
	got, err := scan.Enumerate(context.Background(), func(ctx context.Context, id uint64) (*item, error) {
		calls++
		return &item{ID: id}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, calls)
}

func TestSentinelScan_EmptyStore(t *testing.T) {
	scan := enumerate.SentinelScan[item]{First: 1, MaxCount: 10}
	got, err := scan.Enumerate(context.Background(), storeFetch(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSentinelScan_AllTransportFailuresIsError(t *testing.T) {
	// A scan where every inspected index fails transport-wise must not pass
	// itself off as an empty store.
	failing := map[uint64]bool{}
	for id := uint64(1); id <= 5; id++ {
		failing[id] = true
	}

	scan := enumerate.SentinelScan[item]{First: 1, MaxCount: 5}
	got, err := scan.Enumerate(context.Background(), storeFetch(nil, failing))
	assert.ErrorIs(t, err, domain.ErrUnreachable)
	assert.Empty(t, got)
}

func TestSentinelScan_FailuresThenSentinelIsError(t *testing.T) {
	// Failures at 1 and 2 followed by a sentinel at 3: zero successes, so
	// the scan reports failure rather than an empty result.
	scan := enumerate.SentinelScan[item]{First: 1, MaxCount: 10}
	got, err := scan.Enumerate(context.Background(), storeFetch(
		nil,
		map[uint64]bool{1: true, 2: true},
	))
	assert.ErrorIs(t, err, domain.ErrUnreachable)
	assert.Empty(t, got)
}

func TestSentinelScan_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scan := enumerate.SentinelScan[item]{First: 1, MaxCount: 10}
	got, err := scan.Enumerate(ctx, storeFetch(map[uint64]bool{1: true}, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got)
}

func TestCountedScan_BoundsToCounter(t *testing.T) {
	scan := enumerate.CountedScan[item]{
		First: 1,
		Count: func(ctx context.Context) (uint64, error) { return 3, nil },
	}
	got, err := scan.Enumerate(context.Background(), storeFetch(
		map[uint64]bool{1: true, 2: true, 3: true, 4: true, 5: true},
		nil,
	))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids(got))
}

func TestCountedScan_MidRangeFailureIsTransient(t *testing.T) {
	scan := enumerate.CountedScan[item]{
		First: 1,
		Count: func(ctx context.Context) (uint64, error) { return 4, nil },
	}
	got, err := scan.Enumerate(context.Background(), storeFetch(
		map[uint64]bool{1: true, 2: true, 3: true, 4: true},
		map[uint64]bool{2: true},
	))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3, 4}, ids(got))
}

func TestCountedScan_SentinelMidRangeDoesNotTerminate(t *testing.T) {
	// Counter-bounded scans do not stop on a sentinel: the counter, not the
	// sentinel, is the authority for this strategy.
	scan := enumerate.CountedScan[item]{
		First: 1,
		Count: func(ctx context.Context) (uint64, error) { return 3, nil },
	}
	got, err := scan.Enumerate(context.Background(), storeFetch(
		map[uint64]bool{1: true, 3: true},
		nil,
	))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, ids(got))
}

func TestCountedScan_CounterReadFails(t *testing.T) {
	scan := enumerate.CountedScan[item]{
		First: 1,
		Count: func(ctx context.Context) (uint64, error) {
			return 0, fmt.Errorf("%w: no route to host", domain.ErrUnreachable)
		},
	}
	_, err := scan.Enumerate(context.Background(), storeFetch(nil, nil))
	assert.ErrorIs(t, err, domain.ErrUnreachable)
}

func TestCountedScan_HostileCounterDoesNotPreallocate(t *testing.T) {
	// The counter is remote input: a garbage value must not size memory
	// before the first fetch. The canceled ctx stops the scan right after
	// the allocation this test is about.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scan := enumerate.CountedScan[item]{
		First: 1,
		Count: func(ctx context.Context) (uint64, error) { return math.MaxUint64, nil },
	}
	got, err := scan.Enumerate(ctx, storeFetch(nil, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got)
}
