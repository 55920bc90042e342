package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/gateway"
	"github.com/agora-social/agora-sync/internal/writer"
)

// Created is the outcome of a confirmed creation write. IDKnown is false
// when the receipt carried no matching creation event; callers must then
// re-enumerate instead of trusting ID.
type Created struct {
	ID      uint64      `json:"id"`
	IDKnown bool        `json:"id_known"`
	TxHash  common.Hash `json:"tx_hash"`
}

// Confirmed is the outcome of a non-creating confirmed write
type Confirmed struct {
	TxHash common.Hash `json:"tx_hash"`
}

// CreateCommunityParams describes a new community
type CreateCommunityParams struct {
	Name        string
	Description string
	JoinPolicy  domain.JoinPolicy
	EntryFee    *big.Int
	Mergeable   bool
}

// CreatePostParams describes a new post
type CreatePostParams struct {
	CommunityID         uint64
	Metadata            domain.PostMetadata
	Gated               bool
	CollectibleContract common.Address
	CollectibleID       uint64
	Encrypted           bool
	AccessDelegate      common.Address
}

// CreateEventParams describes a new ticketed event
type CreateEventParams struct {
	Metadata   domain.EventMetadata
	MaxTickets uint64
	Price      *big.Int
}

// CreateCommunity submits a community creation and returns the assigned ID
// extracted from the creation event.
func (s *Service) CreateCommunity(ctx context.Context, session *Session, params CreateCommunityParams) (*Created, error) {
	if params.Name == "" {
		return nil, errors.New("community name is required")
	}

	blob, err := encodeDescription(params.Description)
	if err != nil {
		return nil, err
	}
	entryFee := params.EntryFee
	if entryFee == nil {
		entryFee = big.NewInt(0)
	}

	result, err := s.coordinator.SubmitAndConfirm(ctx, session.Signer(), writer.Request{
		Contract: s.registry.CommunityHub,
		Method:   "createCommunity",
		Args: []interface{}{
			params.Name,
			blob,
			uint8(params.JoinPolicy),
			entryFee,
			params.Mergeable,
		},
		CreationEvent: contracts.EventCommunityCreated,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tagCommunities)
	return created(result), nil
}

// JoinCommunity joins the session's address into a community, attaching the
// entry fee when the community charges one. The target is fetched up front
// because the fee it declares becomes the transferred value.
func (s *Service) JoinCommunity(ctx context.Context, session *Session, communityID uint64) (*Confirmed, error) {
	if !session.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	community, err := s.fetchCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if !community.Active {
		return nil, fmt.Errorf("community %d: %w", communityID, domain.ErrInactive)
	}
	switch community.JoinPolicy {
	case domain.JoinPolicyApproval, domain.JoinPolicyInvite:
		return nil, fmt.Errorf("community %d requires %s: %w",
			communityID, community.JoinPolicy, domain.ErrNotAuthorized)
	}

	result, err := s.coordinator.SubmitAndConfirm(ctx, session.Signer(), writer.Request{
		Contract: s.registry.CommunityHub,
		Method:   "joinCommunity",
		Args:     []interface{}{new(big.Int).SetUint64(communityID)},
		Opts:     gateway.CallOpts{Value: community.EntryFee},
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tagCommunities)
	return &Confirmed{TxHash: result.TxHash}, nil
}

// LeaveCommunity removes the session's address from a community
func (s *Service) LeaveCommunity(ctx context.Context, session *Session, communityID uint64) (*Confirmed, error) {
	result, err := s.coordinator.SubmitAndConfirm(ctx, session.Signer(), writer.Request{
		Contract: s.registry.CommunityHub,
		Method:   "leaveCommunity",
		Args:     []interface{}{new(big.Int).SetUint64(communityID)},
		Preconditions: []writer.Precondition{
			s.requireMembership(session, communityID),
		},
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tagCommunities)
	return &Confirmed{TxHash: result.TxHash}, nil
}

// CreatePost submits a post into a community the session is a member of
func (s *Service) CreatePost(ctx context.Context, session *Session, params CreatePostParams) (*Created, error) {
	blob, err := domain.EncodePostMetadata(params.Metadata)
	if err != nil {
		return nil, err
	}

	result, err := s.coordinator.SubmitAndConfirm(ctx, session.Signer(), writer.Request{
		Contract: s.registry.ContentRegistry,
		Method:   "createPost",
		Args: []interface{}{
			new(big.Int).SetUint64(params.CommunityID),
			blob,
			params.Gated,
			params.CollectibleContract,
			new(big.Int).SetUint64(params.CollectibleID),
			params.Encrypted,
			params.AccessDelegate,
		},
		CreationEvent: contracts.EventPostCreated,
		Preconditions: []writer.Precondition{
			func(ctx context.Context) error {
				community, err := s.fetchCommunity(ctx, params.CommunityID)
				if err != nil {
					return err
				}
				if !community.Active {
					return fmt.Errorf("community %d: %w", params.CommunityID, domain.ErrInactive)
				}
				return nil
			},
			s.requireMembership(session, params.CommunityID),
		},
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tagPosts)
	return created(result), nil
}

// CreateTicketedEvent submits an event creation. Only organizer role holders
// pass the advisory check; the ledger enforces the same rule authoritatively.
func (s *Service) CreateTicketedEvent(ctx context.Context, session *Session, params CreateEventParams) (*Created, error) {
	if params.MaxTickets == 0 {
		return nil, errors.New("max tickets must be positive")
	}

	blob, err := domain.EncodeEventMetadata(params.Metadata)
	if err != nil {
		return nil, err
	}
	price := params.Price
	if price == nil {
		price = big.NewInt(0)
	}

	result, err := s.coordinator.SubmitAndConfirm(ctx, session.Signer(), writer.Request{
		Contract: s.registry.EventTicketing,
		Method:   "createEvent",
		Args: []interface{}{
			blob,
			new(big.Int).SetUint64(params.MaxTickets),
			price,
		},
		CreationEvent: contracts.EventEventCreated,
		Preconditions: []writer.Precondition{
			func(ctx context.Context) error {
				address, ok := session.Address()
				if !ok {
					return domain.ErrNotSignedIn
				}
				grant, err := s.GetRoleGrant(ctx, address, domain.RoleOrganizer)
				if err != nil {
					return err
				}
				if !grant.Granted {
					return fmt.Errorf("%s lacks %s role: %w",
						address.Hex(), domain.RoleOrganizer, domain.ErrNotAuthorized)
				}
				return nil
			},
		},
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tagEvents)
	return created(result), nil
}

// BuyTicket purchases one ticket, attaching the event's price as the value.
// The event is fetched up front for the same reason as JoinCommunity: its
// declared price becomes the transferred value.
func (s *Service) BuyTicket(ctx context.Context, session *Session, eventID uint64) (*Confirmed, error) {
	if !session.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	event, err := s.fetchEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Active {
		return nil, fmt.Errorf("event %d: %w", eventID, domain.ErrInactive)
	}
	if event.TicketsSold >= event.MaxTickets {
		return nil, fmt.Errorf("event %d: %w", eventID, domain.ErrSoldOut)
	}

	result, err := s.coordinator.SubmitAndConfirm(ctx, session.Signer(), writer.Request{
		Contract: s.registry.EventTicketing,
		Method:   "buyTicket",
		Args:     []interface{}{new(big.Int).SetUint64(eventID)},
		Opts:     gateway.CallOpts{Value: event.Price},
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tagEvents)
	return &Confirmed{TxHash: result.TxHash}, nil
}

// RegisterProfile mints the session's profile token under a unique username
func (s *Service) RegisterProfile(ctx context.Context, session *Session, username string, metadata domain.ProfileMetadata) (*Created, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}

	blob, err := domain.EncodeProfileMetadata(metadata)
	if err != nil {
		return nil, err
	}

	result, err := s.coordinator.SubmitAndConfirm(ctx, session.Signer(), writer.Request{
		Contract:      s.registry.ProfileRegistry,
		Method:        "registerProfile",
		Args:          []interface{}{username, blob},
		CreationEvent: contracts.EventProfileRegistered,
		Preconditions: []writer.Precondition{
			func(ctx context.Context) error {
				taken, err := s.UsernameTaken(ctx, username)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("%q: %w", username, domain.ErrUsernameTaken)
				}
				return nil
			},
			func(ctx context.Context) error {
				address, ok := session.Address()
				if !ok {
					return domain.ErrNotSignedIn
				}
				balance, err := s.readBig(ctx, s.registry.ProfileRegistry, "balanceOf", address)
				if err != nil {
					return err
				}
				if balance.Sign() > 0 {
					return fmt.Errorf("%s: %w", address.Hex(), domain.ErrProfileExists)
				}
				return nil
			},
		},
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tagProfiles)
	return created(result), nil
}

// requireMembership is the advisory "caller is a member" precondition
func (s *Service) requireMembership(session *Session, communityID uint64) writer.Precondition {
	return func(ctx context.Context) error {
		address, ok := session.Address()
		if !ok {
			return domain.ErrNotSignedIn
		}
		status, err := s.GetMembershipStatus(ctx, communityID, address)
		if err != nil {
			return err
		}
		if !status.Member {
			return fmt.Errorf("%s is not a member of community %d: %w",
				address.Hex(), communityID, domain.ErrNotAuthorized)
		}
		return nil
	}
}

func created(result *writer.Result) *Created {
	return &Created{
		ID:      result.CreatedID,
		IDKnown: result.IDFound,
		TxHash:  result.TxHash,
	}
}

// encodeDescription wraps a community description into its metadata blob,
// the shape the community reconciler decodes.
func encodeDescription(description string) (string, error) {
	raw, err := json.Marshal(struct {
		Description string `json:"description"`
	}{Description: description})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
