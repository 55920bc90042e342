// Package contracts holds the fixed per-domain contract surface: one ABI per
// contract, parsed once at startup. The ABIs cover only what the sync layer
// calls; the contracts themselves carry more.
package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Contract pairs a deployed address with its parsed ABI
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// Creation event names scanned for in write receipts
const (
	EventCommunityCreated  = "CommunityCreated"
	EventPostCreated       = "PostCreated"
	EventEventCreated      = "EventCreated"
	EventProfileRegistered = "ProfileRegistered"
	EventMemberJoined      = "MemberJoined"
	EventMemberLeft        = "MemberLeft"
	EventTicketPurchased   = "TicketPurchased"
)

const communityHubABI = `[
	{"constant":true,"inputs":[],"name":"communityCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"communityId","type":"uint256"}],"name":"communities","outputs":[{"name":"name","type":"string"},{"name":"metadataURI","type":"string"},{"name":"joinPolicy","type":"uint8"},{"name":"entryFee","type":"uint256"},{"name":"memberCount","type":"uint256"},{"name":"mergeable","type":"bool"},{"name":"admin","type":"address"},{"name":"active","type":"bool"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"communityId","type":"uint256"},{"name":"account","type":"address"}],"name":"isMember","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"communityId","type":"uint256"},{"name":"index","type":"uint256"}],"name":"communityPostIds","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"name","type":"string"},{"name":"metadataURI","type":"string"},{"name":"joinPolicy","type":"uint8"},{"name":"entryFee","type":"uint256"},{"name":"mergeable","type":"bool"}],"name":"createCommunity","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"communityId","type":"uint256"}],"name":"joinCommunity","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"communityId","type":"uint256"}],"name":"leaveCommunity","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"communityId","type":"uint256"},{"indexed":true,"name":"creator","type":"address"},{"indexed":false,"name":"name","type":"string"}],"name":"CommunityCreated","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"communityId","type":"uint256"},{"indexed":true,"name":"member","type":"address"}],"name":"MemberJoined","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"communityId","type":"uint256"},{"indexed":true,"name":"member","type":"address"}],"name":"MemberLeft","type":"event"}
]`

const contentRegistryABI = `[
	{"constant":true,"inputs":[{"name":"postId","type":"uint256"}],"name":"posts","outputs":[{"name":"creator","type":"address"},{"name":"communityId","type":"uint256"},{"name":"metadataURI","type":"string"},{"name":"gated","type":"bool"},{"name":"collectibleContract","type":"address"},{"name":"collectibleId","type":"uint256"},{"name":"encrypted","type":"bool"},{"name":"accessDelegate","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"communityId","type":"uint256"},{"name":"metadataURI","type":"string"},{"name":"gated","type":"bool"},{"name":"collectibleContract","type":"address"},{"name":"collectibleId","type":"uint256"},{"name":"encrypted","type":"bool"},{"name":"accessDelegate","type":"address"}],"name":"createPost","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"postId","type":"uint256"},{"indexed":true,"name":"communityId","type":"uint256"},{"indexed":true,"name":"creator","type":"address"}],"name":"PostCreated","type":"event"}
]`

const eventTicketingABI = `[
	{"constant":true,"inputs":[{"name":"eventId","type":"uint256"}],"name":"events","outputs":[{"name":"metadataURI","type":"string"},{"name":"organizer","type":"address"},{"name":"maxTickets","type":"uint256"},{"name":"ticketsSold","type":"uint256"},{"name":"price","type":"uint256"},{"name":"active","type":"bool"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"name":"hasRole","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"metadataURI","type":"string"},{"name":"maxTickets","type":"uint256"},{"name":"price","type":"uint256"}],"name":"createEvent","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"eventId","type":"uint256"}],"name":"buyTicket","outputs":[],"stateMutability":"payable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"eventId","type":"uint256"},{"indexed":true,"name":"organizer","type":"address"}],"name":"EventCreated","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"eventId","type":"uint256"},{"indexed":true,"name":"buyer","type":"address"},{"indexed":false,"name":"quantity","type":"uint256"}],"name":"TicketPurchased","type":"event"}
]`

const profileRegistryABI = `[
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"profiles","outputs":[{"name":"owner","type":"address"},{"name":"username","type":"string"},{"name":"metadataURI","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"profileOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"username","type":"string"}],"name":"usernameTaken","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"username","type":"string"},{"name":"metadataURI","type":"string"}],"name":"registerProfile","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"tokenId","type":"uint256"},{"indexed":true,"name":"owner","type":"address"},{"indexed":false,"name":"username","type":"string"}],"name":"ProfileRegistered","type":"event"}
]`

// Registry holds the full deployed contract surface for one network
type Registry struct {
	CommunityHub    *Contract
	ContentRegistry *Contract
	EventTicketing  *Contract
	ProfileRegistry *Contract
}

// Addresses carries the deployed addresses, hex-encoded, from configuration
type Addresses struct {
	CommunityHub    string
	ContentRegistry string
	EventTicketing  string
	ProfileRegistry string
}

// NewRegistry parses every ABI and binds it to its deployed address
func NewRegistry(addrs Addresses) (*Registry, error) {
	hub, err := newContract("CommunityHub", addrs.CommunityHub, communityHubABI)
	if err != nil {
		return nil, err
	}
	content, err := newContract("ContentRegistry", addrs.ContentRegistry, contentRegistryABI)
	if err != nil {
		return nil, err
	}
	ticketing, err := newContract("EventTicketing", addrs.EventTicketing, eventTicketingABI)
	if err != nil {
		return nil, err
	}
	profile, err := newContract("ProfileRegistry", addrs.ProfileRegistry, profileRegistryABI)
	if err != nil {
		return nil, err
	}

	return &Registry{
		CommunityHub:    hub,
		ContentRegistry: content,
		EventTicketing:  ticketing,
		ProfileRegistry: profile,
	}, nil
}

// All returns every contract in the registry, for receipt log decoding
func (r *Registry) All() []*Contract {
	return []*Contract{r.CommunityHub, r.ContentRegistry, r.EventTicketing, r.ProfileRegistry}
}

func newContract(name, address, rawABI string) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s ABI: %w", name, err)
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid %s address: %q", name, address)
	}
	return &Contract{
		Name:    name,
		Address: common.HexToAddress(address),
		ABI:     parsed,
	}, nil
}

// RoleHash derives the bytes32 role identifier used by the role registry,
// matching keccak256(roleName) on the contract side.
func RoleHash(role string) common.Hash {
	return crypto.Keccak256Hash([]byte(role))
}
