// Package social is the entity layer over the ledger gateway: it reconciles
// raw tuples into domain entities, enumerates entity sets, serves a
// short-lived read cache and coordinates signed writes.
package social

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"

	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/gateway"
	"github.com/agora-social/agora-sync/internal/writer"
)

// Options tunes enumeration bounds, feed composition and the read cache
type Options struct {
	// CacheTTL is how long a reconciled entity stays served from memory
	CacheTTL time.Duration
	// MaxScan bounds every sentinel-terminated enumeration
	MaxScan int
	// FeedWorkers bounds per-community concurrency during feed composition
	FeedWorkers int
	// FeedPerParent caps each community's contribution to the feed
	FeedPerParent int
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.CacheTTL <= 0 {
		out.CacheTTL = time.Minute
	}
	if out.MaxScan <= 0 {
		out.MaxScan = 10000
	}
	if out.FeedWorkers <= 0 {
		out.FeedWorkers = 8
	}
	if out.FeedPerParent < 0 {
		out.FeedPerParent = 0
	}
	return out
}

// Service reads and writes social entities through the ledger gateway
type Service struct {
	ledger      gateway.Ledger
	registry    *contracts.Registry
	coordinator *writer.Coordinator
	marshal     *marshaler.Marshaler
	opts        Options
}

// NewService creates the entity layer. The cache is process-local and purely
// an optimization: every miss falls through to the ledger.
func NewService(ledger gateway.Ledger, registry *contracts.Registry, opts Options) (*Service, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)
	cacheManager := cache.New[any](ristrettoStore)

	return &Service{
		ledger:      ledger,
		registry:    registry,
		coordinator: writer.New(ledger, registry),
		marshal:     marshaler.New(cacheManager),
		opts:        opts.withDefaults(),
	}, nil
}

// cached serves value from the read cache, falling back to load on any miss.
// Only successful loads are cached; absence and failures always re-hit the
// ledger.
func cached[T any](ctx context.Context, s *Service, key string, tag string, load func(ctx context.Context) (*T, error)) (*T, error) {
	if hit, err := s.marshal.Get(ctx, key, new(T)); err == nil {
		if value, ok := hit.(*T); ok {
			return value, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return nil, err
	}

	_ = s.marshal.Set(ctx, key, value,
		store.WithExpiration(s.opts.CacheTTL),
		store.WithTags([]string{tag}),
	)
	return value, nil
}

// invalidate drops every cached entry carrying one of the tags. Called after
// confirmed writes so the next read observes the mutation.
func (s *Service) invalidate(ctx context.Context, tags ...string) {
	_ = s.marshal.Invalidate(ctx, store.WithInvalidateTags(tags))
}

const (
	tagCommunities = "communities"
	tagPosts       = "posts"
	tagEvents      = "events"
	tagProfiles    = "profiles"
)

func communityKey(id uint64) string {
	return fmt.Sprintf("community#%d", id)
}

func postKey(id uint64) string {
	return fmt.Sprintf("post#%d", id)
}

func eventKey(id uint64) string {
	return fmt.Sprintf("event#%d", id)
}

func profileKey(token uint64) string {
	return fmt.Sprintf("profile#%d", token)
}
