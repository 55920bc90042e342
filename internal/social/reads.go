package social

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/agora-social/agora-sync/internal/compose"
	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/enumerate"
	"github.com/agora-social/agora-sync/internal/reconcile"
)

// Feed is the cross-community post view, newest first. FailedCommunities
// names the communities whose posts could not be loaded this pass; their
// absence degrades the feed without sinking it.
type Feed struct {
	Posts             []*domain.Post `json:"posts"`
	FailedCommunities []uint64       `json:"failed_communities,omitempty"`
}

// Degraded reports whether any community was skipped during composition
func (f *Feed) Degraded() bool {
	return len(f.FailedCommunities) > 0
}

// Snapshot is one full enumeration pass over every entity kind
type Snapshot struct {
	Communities []*domain.Community     `json:"communities"`
	Events      []*domain.TicketedEvent `json:"events"`
	Feed        *Feed                   `json:"feed"`
}

// GetCommunity loads one community by ID. The zero ID is never a valid
// entity.
func (s *Service) GetCommunity(ctx context.Context, id uint64) (*domain.Community, error) {
	if id == 0 {
		return nil, domain.ErrAbsent
	}
	return cached(ctx, s, communityKey(id), tagCommunities, func(ctx context.Context) (*domain.Community, error) {
		return s.fetchCommunity(ctx, id)
	})
}

// GetAllCommunities enumerates every community. Communities are
// counter-bounded: the hub's monotonic counter says how many slots are
// populated, so a sentinel mid-range never terminates the scan.
func (s *Service) GetAllCommunities(ctx context.Context) ([]*domain.Community, error) {
	scan := enumerate.CountedScan[domain.Community]{
		First: domain.FIRST_ENTITY_ID,
		Count: s.communityCount,
	}
	return scan.Enumerate(ctx, s.fetchCommunity)
}

// GetPost loads one post by ID
func (s *Service) GetPost(ctx context.Context, id uint64) (*domain.Post, error) {
	if id == 0 {
		return nil, domain.ErrAbsent
	}
	return cached(ctx, s, postKey(id), tagPosts, func(ctx context.Context) (*domain.Post, error) {
		return s.fetchPost(ctx, id)
	})
}

// GetCommunityPosts enumerates a community's posts through its index array.
// The array is sentinel-terminated: an index past the end yields the zero
// post identifier.
func (s *Service) GetCommunityPosts(ctx context.Context, communityID uint64) ([]*domain.Post, error) {
	fetch := func(ctx context.Context, index uint64) (*domain.Post, error) {
		postID, err := s.readBig(ctx, s.registry.CommunityHub, "communityPostIds",
			new(big.Int).SetUint64(communityID), new(big.Int).SetUint64(index))
		if err != nil {
			return nil, err
		}
		if postID.Sign() == 0 {
			return nil, domain.ErrAbsent
		}
		return s.GetPost(ctx, postID.Uint64())
	}

	// First is 0 here: the scan walks array indices, not entity IDs
	scan := enumerate.SentinelScan[domain.Post]{First: 0, MaxCount: s.opts.MaxScan}
	return scan.Enumerate(ctx, fetch)
}

// GetFeed composes the cross-community feed, newest post first. A community
// whose posts fail to load is recorded and skipped.
func (s *Service) GetFeed(ctx context.Context) (*Feed, error) {
	communities, err := s.GetAllCommunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate communities for feed: %w", err)
	}

	ids := lo.Map(communities, func(c *domain.Community, _ int) uint64 {
		return c.ID
	})

	composer := compose.New[uint64, *domain.Post](s.opts.FeedWorkers, s.opts.FeedPerParent,
		func(a, b *domain.Post) bool {
			return a.ID > b.ID
		})
	view := composer.Across(ctx, ids, s.GetCommunityPosts)

	return &Feed{
		Posts: view.Children,
		FailedCommunities: lo.Map(view.Failures, func(f compose.Failure[uint64], _ int) uint64 {
			return f.Parent
		}),
	}, nil
}

// GetPostsByCreator returns every reachable post authored by one address,
// newest first. Built on the feed enumeration, so it inherits its failure
// isolation.
func (s *Service) GetPostsByCreator(ctx context.Context, creator common.Address) ([]*domain.Post, error) {
	feed, err := s.GetFeed(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(feed.Posts, func(p *domain.Post, _ int) bool {
		return p.Creator == creator
	}), nil
}

// GetEvent loads one ticketed event by ID
func (s *Service) GetEvent(ctx context.Context, id uint64) (*domain.TicketedEvent, error) {
	if id == 0 {
		return nil, domain.ErrAbsent
	}
	return cached(ctx, s, eventKey(id), tagEvents, func(ctx context.Context) (*domain.TicketedEvent, error) {
		return s.fetchEvent(ctx, id)
	})
}

// GetAllEvents enumerates every ticketed event. Events are
// sentinel-terminated: the scan stops at the first zero-capacity slot.
func (s *Service) GetAllEvents(ctx context.Context) ([]*domain.TicketedEvent, error) {
	scan := enumerate.SentinelScan[domain.TicketedEvent]{
		First:    domain.FIRST_ENTITY_ID,
		MaxCount: s.opts.MaxScan,
	}
	return scan.Enumerate(ctx, s.fetchEvent)
}

// GetProfileByToken loads one profile by its token ID
func (s *Service) GetProfileByToken(ctx context.Context, tokenID uint64) (*domain.Profile, error) {
	if tokenID == 0 {
		return nil, domain.ErrAbsent
	}
	return cached(ctx, s, profileKey(tokenID), tagProfiles, func(ctx context.Context) (*domain.Profile, error) {
		return s.fetchProfile(ctx, tokenID)
	})
}

// GetProfile resolves an address to its profile. An address without a
// profile token maps to absence, not an error.
func (s *Service) GetProfile(ctx context.Context, owner common.Address) (*domain.Profile, error) {
	tokenID, err := s.readBig(ctx, s.registry.ProfileRegistry, "profileOf", owner)
	if err != nil {
		return nil, err
	}
	if tokenID.Sign() == 0 {
		return nil, domain.ErrAbsent
	}
	return s.GetProfileByToken(ctx, tokenID.Uint64())
}

// UsernameTaken reports whether a username is already registered. Advisory:
// a race with a concurrent registration is settled by the ledger.
func (s *Service) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.readBool(ctx, s.registry.ProfileRegistry, "usernameTaken", username)
}

// GetMembershipStatus answers whether an address is a member of a community
func (s *Service) GetMembershipStatus(ctx context.Context, communityID uint64, address common.Address) (*domain.MembershipStatus, error) {
	member, err := s.readBool(ctx, s.registry.CommunityHub, "isMember",
		new(big.Int).SetUint64(communityID), address)
	if err != nil {
		return nil, err
	}
	return &domain.MembershipStatus{
		CommunityID: communityID,
		Address:     address,
		Member:      member,
	}, nil
}

// GetRoleGrant answers whether an address holds a role in the role registry
func (s *Service) GetRoleGrant(ctx context.Context, address common.Address, role domain.Role) (*domain.RoleGrant, error) {
	granted, err := s.readBool(ctx, s.registry.EventTicketing, "hasRole",
		contracts.RoleHash(string(role)), address)
	if err != nil {
		return nil, err
	}
	return &domain.RoleGrant{
		Address: address,
		Role:    role,
		Granted: granted,
	}, nil
}

// Refresh runs one full enumeration pass over every entity kind
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	communities, err := s.GetAllCommunities(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.GetAllEvents(ctx)
	if err != nil {
		return nil, err
	}
	feed, err := s.GetFeed(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Communities: communities,
		Events:      events,
		Feed:        feed,
	}, nil
}

func (s *Service) fetchCommunity(ctx context.Context, id uint64) (*domain.Community, error) {
	raw, err := s.ledger.Read(ctx, s.registry.CommunityHub, "communities", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	return reconcile.Community(id, raw)
}

func (s *Service) fetchPost(ctx context.Context, id uint64) (*domain.Post, error) {
	raw, err := s.ledger.Read(ctx, s.registry.ContentRegistry, "posts", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	return reconcile.Post(id, raw)
}

func (s *Service) fetchEvent(ctx context.Context, id uint64) (*domain.TicketedEvent, error) {
	raw, err := s.ledger.Read(ctx, s.registry.EventTicketing, "events", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	return reconcile.Event(id, raw)
}

func (s *Service) fetchProfile(ctx context.Context, tokenID uint64) (*domain.Profile, error) {
	raw, err := s.ledger.Read(ctx, s.registry.ProfileRegistry, "profiles", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return nil, err
	}
	return reconcile.Profile(tokenID, raw)
}

// communityCount reads the hub's monotonic community counter
func (s *Service) communityCount(ctx context.Context) (uint64, error) {
	count, err := s.readBig(ctx, s.registry.CommunityHub, "communityCount")
	if err != nil {
		return 0, err
	}
	return count.Uint64(), nil
}

func (s *Service) readBig(ctx context.Context, contract *contracts.Contract, method string, args ...interface{}) (*big.Int, error) {
	raw, err := s.ledger.Read(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}
	if len(raw) != 1 {
		return nil, fmt.Errorf("%s.%s: expected 1 return value, got %d", contract.Name, method, len(raw))
	}
	value, ok := raw[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s.%s: unexpected return type %T", contract.Name, method, raw[0])
	}
	return value, nil
}

func (s *Service) readBool(ctx context.Context, contract *contracts.Contract, method string, args ...interface{}) (bool, error) {
	raw, err := s.ledger.Read(ctx, contract, method, args...)
	if err != nil {
		return false, err
	}
	if len(raw) != 1 {
		return false, fmt.Errorf("%s.%s: expected 1 return value, got %d", contract.Name, method, len(raw))
	}
	value, ok := raw[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s.%s: unexpected return type %T", contract.Name, method, raw[0])
	}
	return value, nil
}
