package domain

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EntityKind identifies a synchronized entity family
type EntityKind string

const (
	KindCommunity EntityKind = "community"
	KindPost      EntityKind = "post"
	KindEvent     EntityKind = "event"
	KindProfile   EntityKind = "profile"
)

// JoinPolicy controls how an address becomes a community member
type JoinPolicy uint8

const (
	JoinPolicyOpen JoinPolicy = iota
	JoinPolicyApproval
	JoinPolicyInvite
	JoinPolicyGatedByAsset
)

// ParseJoinPolicy parses the string form used on the external boundary
func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch s {
	case "", "open":
		return JoinPolicyOpen, nil
	case "approval":
		return JoinPolicyApproval, nil
	case "invite":
		return JoinPolicyInvite, nil
	case "gated_by_asset":
		return JoinPolicyGatedByAsset, nil
	default:
		return JoinPolicyOpen, fmt.Errorf("unknown join policy %q", s)
	}
}

func (p JoinPolicy) String() string {
	switch p {
	case JoinPolicyOpen:
		return "open"
	case JoinPolicyApproval:
		return "approval"
	case JoinPolicyInvite:
		return "invite"
	case JoinPolicyGatedByAsset:
		return "gated_by_asset"
	default:
		return "unknown"
	}
}

// PostKind is the content type carried in a post's metadata blob
type PostKind string

const (
	PostKindText          PostKind = "text"
	PostKindImage         PostKind = "image"
	PostKindTicketedEvent PostKind = "ticketed_event"
)

// Role identifies a capability queried from the ledger's role registry
type Role string

const (
	RoleOrganizer Role = "organizer"
)

// Community is a ledger-owned group. The ID is assigned by the hub contract's
// monotonic counter at creation, starts at 1 and never changes.
type Community struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	JoinPolicy  JoinPolicy     `json:"join_policy"`
	EntryFee    *big.Int       `json:"entry_fee"`
	MemberCount uint64         `json:"member_count"`
	Mergeable   bool           `json:"mergeable"`
	Admin       common.Address `json:"admin"`
	Active      bool           `json:"active"`
}

// PostMetadata is the decoded metadata blob of a post
type PostMetadata struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Kind      PostKind  `json:"kind"`
	ImageRef  string    `json:"image_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is a content item owned by exactly one community
type Post struct {
	ID                  uint64         `json:"id"`
	Creator             common.Address `json:"creator"`
	CommunityID         uint64         `json:"community_id"`
	Metadata            PostMetadata   `json:"metadata"`
	MetadataDegraded    bool           `json:"metadata_degraded,omitempty"`
	Gated               bool           `json:"gated"`
	CollectibleContract common.Address `json:"collectible_contract,omitempty"`
	CollectibleID       uint64         `json:"collectible_id,omitempty"`
	Encrypted           bool           `json:"encrypted"`
	AccessDelegate      common.Address `json:"access_delegate,omitempty"`
}

// TicketClass is one priced tier inside an event's metadata blob
type TicketClass struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Quota uint64 `json:"quota"`
}

// EventMetadata is the decoded metadata blob of a ticketed event
type EventMetadata struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Schedule      time.Time     `json:"schedule"`
	Location      string        `json:"location"`
	Capacity      uint64        `json:"capacity"`
	TicketClasses []TicketClass `json:"ticket_classes,omitempty"`
}

// TicketedEvent is a ledger-owned event. MaxTickets == 0 is the absence
// sentinel: every reader treats such a tuple as "no such event".
type TicketedEvent struct {
	ID               uint64         `json:"id"`
	Metadata         EventMetadata  `json:"metadata"`
	MetadataDegraded bool           `json:"metadata_degraded,omitempty"`
	Organizer        common.Address `json:"organizer"`
	MaxTickets       uint64         `json:"max_tickets"`
	TicketsSold      uint64         `json:"tickets_sold"`
	Price            *big.Int       `json:"price"`
	Active           bool           `json:"active"`
}

// ProfileMetadata is the decoded metadata blob of a profile
type ProfileMetadata struct {
	Name        string            `json:"name"`
	Bio         string            `json:"bio"`
	Avatar      string            `json:"avatar,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
}

// Profile is a username-bound identity token
type Profile struct {
	TokenID          uint64          `json:"token_id"`
	Username         string          `json:"username"`
	Metadata         ProfileMetadata `json:"metadata"`
	MetadataDegraded bool            `json:"metadata_degraded,omitempty"`
	Owner            common.Address  `json:"owner"`
}

// RoleGrant is an address-holds-role fact queried from the ledger
type RoleGrant struct {
	Address common.Address `json:"address"`
	Role    Role           `json:"role"`
	Granted bool           `json:"granted"`
}

// MembershipStatus answers "is this address a member of this community"
type MembershipStatus struct {
	CommunityID uint64         `json:"community_id"`
	Address     common.Address `json:"address"`
	Member      bool           `json:"member"`
}

// FormatID renders an identifier as the decimal string used on the external
// boundary.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseID parses a decimal-string identifier
func ParseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
