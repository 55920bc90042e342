// Package reconcile turns raw contract field tuples into typed domain
// entities. Each kind has exactly one absence rule, applied here and nowhere
// else: an empty slot comes back as a well-formed sentinel-valued tuple,
// indistinguishable from a real read at the transport level, and reconciling
// it yields domain.ErrAbsent.
package reconcile

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agora-social/agora-sync/internal/domain"
)

var zeroAddress = common.HexToAddress(domain.ZERO_ADDRESS)

// Community reconciles a CommunityHub.communities(id) tuple:
// (name, metadataURI, joinPolicy, entryFee, memberCount, mergeable, admin, active).
// An empty name is the absence sentinel for this kind.
func Community(id uint64, raw []interface{}) (*domain.Community, error) {
	if len(raw) != 8 {
		return nil, fmt.Errorf("malformed community tuple: %d fields", len(raw))
	}

	name, err := asString(raw[0], "name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.ErrAbsent
	}

	metadataURI, err := asString(raw[1], "metadataURI")
	if err != nil {
		return nil, err
	}
	joinPolicy, err := asUint8(raw[2], "joinPolicy")
	if err != nil {
		return nil, err
	}
	entryFee, err := asBig(raw[3], "entryFee")
	if err != nil {
		return nil, err
	}
	memberCount, err := asBig(raw[4], "memberCount")
	if err != nil {
		return nil, err
	}
	mergeable, err := asBool(raw[5], "mergeable")
	if err != nil {
		return nil, err
	}
	admin, err := asAddress(raw[6], "admin")
	if err != nil {
		return nil, err
	}
	active, err := asBool(raw[7], "active")
	if err != nil {
		return nil, err
	}

	// The description lives inside the metadata blob, not a first-class
	// field. A corrupt blob costs the description, never the community.
	var meta struct {
		Description string `json:"description"`
	}
	_ = json.Unmarshal([]byte(metadataURI), &meta)

	return &domain.Community{
		ID:          id,
		Name:        name,
		Description: meta.Description,
		JoinPolicy:  domain.JoinPolicy(joinPolicy),
		EntryFee:    entryFee,
		MemberCount: memberCount.Uint64(),
		Mergeable:   mergeable,
		Admin:       admin,
		Active:      active,
	}, nil
}

// Post reconciles a ContentRegistry.posts(id) tuple:
// (creator, communityId, metadataURI, gated, collectibleContract,
// collectibleId, encrypted, accessDelegate).
// A zero creator address is the absence sentinel for this kind.
func Post(id uint64, raw []interface{}) (*domain.Post, error) {
	if len(raw) != 8 {
		return nil, fmt.Errorf("malformed post tuple: %d fields", len(raw))
	}

	creator, err := asAddress(raw[0], "creator")
	if err != nil {
		return nil, err
	}
	if creator == zeroAddress {
		return nil, domain.ErrAbsent
	}

	communityID, err := asBig(raw[1], "communityId")
	if err != nil {
		return nil, err
	}
	metadataURI, err := asString(raw[2], "metadataURI")
	if err != nil {
		return nil, err
	}
	gated, err := asBool(raw[3], "gated")
	if err != nil {
		return nil, err
	}
	collectibleContract, err := asAddress(raw[4], "collectibleContract")
	if err != nil {
		return nil, err
	}
	collectibleID, err := asBig(raw[5], "collectibleId")
	if err != nil {
		return nil, err
	}
	encrypted, err := asBool(raw[6], "encrypted")
	if err != nil {
		return nil, err
	}
	accessDelegate, err := asAddress(raw[7], "accessDelegate")
	if err != nil {
		return nil, err
	}

	metadata, degraded := domain.DecodePostMetadata(metadataURI)

	return &domain.Post{
		ID:                  id,
		Creator:             creator,
		CommunityID:         communityID.Uint64(),
		Metadata:            metadata,
		MetadataDegraded:    degraded,
		Gated:               gated,
		CollectibleContract: collectibleContract,
		CollectibleID:       collectibleID.Uint64(),
		Encrypted:           encrypted,
		AccessDelegate:      accessDelegate,
	}, nil
}

// Event reconciles an EventTicketing.events(id) tuple:
// (metadataURI, organizer, maxTickets, ticketsSold, price, active).
// maxTickets == 0 is the absence sentinel: there is no separate "exists"
// flag, and every reader must apply this rule identically.
func Event(id uint64, raw []interface{}) (*domain.TicketedEvent, error) {
	if len(raw) != 6 {
		return nil, fmt.Errorf("malformed event tuple: %d fields", len(raw))
	}

	metadataURI, err := asString(raw[0], "metadataURI")
	if err != nil {
		return nil, err
	}
	organizer, err := asAddress(raw[1], "organizer")
	if err != nil {
		return nil, err
	}
	maxTickets, err := asBig(raw[2], "maxTickets")
	if err != nil {
		return nil, err
	}
	if maxTickets.Sign() == 0 {
		return nil, domain.ErrAbsent
	}

	ticketsSold, err := asBig(raw[3], "ticketsSold")
	if err != nil {
		return nil, err
	}
	price, err := asBig(raw[4], "price")
	if err != nil {
		return nil, err
	}
	active, err := asBool(raw[5], "active")
	if err != nil {
		return nil, err
	}

	metadata, degraded := domain.DecodeEventMetadata(metadataURI)

	return &domain.TicketedEvent{
		ID:               id,
		Metadata:         metadata,
		MetadataDegraded: degraded,
		Organizer:        organizer,
		MaxTickets:       maxTickets.Uint64(),
		TicketsSold:      ticketsSold.Uint64(),
		Price:            price,
		Active:           active,
	}, nil
}

// Profile reconciles a ProfileRegistry.profiles(tokenId) tuple:
// (owner, username, metadataURI).
// A zero owner address is the absence sentinel for this kind.
func Profile(tokenID uint64, raw []interface{}) (*domain.Profile, error) {
	if len(raw) != 3 {
		return nil, fmt.Errorf("malformed profile tuple: %d fields", len(raw))
	}

	owner, err := asAddress(raw[0], "owner")
	if err != nil {
		return nil, err
	}
	if owner == zeroAddress {
		return nil, domain.ErrAbsent
	}

	username, err := asString(raw[1], "username")
	if err != nil {
		return nil, err
	}
	metadataURI, err := asString(raw[2], "metadataURI")
	if err != nil {
		return nil, err
	}

	metadata, degraded := domain.DecodeProfileMetadata(metadataURI)

	return &domain.Profile{
		TokenID:          tokenID,
		Username:         username,
		Metadata:         metadata,
		MetadataDegraded: degraded,
		Owner:            owner,
	}, nil
}

func asString(v interface{}, field string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %s: expected string, got %T", field, v)
	}
	return s, nil
}

func asBool(v interface{}, field string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %s: expected bool, got %T", field, v)
	}
	return b, nil
}

func asUint8(v interface{}, field string) (uint8, error) {
	u, ok := v.(uint8)
	if !ok {
		return 0, fmt.Errorf("field %s: expected uint8, got %T", field, v)
	}
	return u, nil
}

func asBig(v interface{}, field string) (*big.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("field %s: expected *big.Int, got %T", field, v)
	}
	return b, nil
}

func asAddress(v interface{}, field string) (common.Address, error) {
	a, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("field %s: expected address, got %T", field, v)
	}
	return a, nil
}
