package social_test

import (
	"fmt"
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/gateway"
	"github.com/agora-social/agora-sync/internal/logger"
	"github.com/agora-social/agora-sync/internal/mocks"
	"github.com/agora-social/agora-sync/internal/social"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var (
	adminAddr  = common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01")
	memberAddr = common.HexToAddress("0x1234567890123456789012345678901234567890")
)

func newTestRegistry(t *testing.T) *contracts.Registry {
	t.Helper()
	registry, err := contracts.NewRegistry(contracts.Addresses{
		CommunityHub:    "0x1111111111111111111111111111111111111111",
		ContentRegistry: "0x2222222222222222222222222222222222222222",
		EventTicketing:  "0x3333333333333333333333333333333333333333",
		ProfileRegistry: "0x4444444444444444444444444444444444444444",
	})
	require.NoError(t, err)
	return registry
}

func newTestService(t *testing.T, ctrl *gomock.Controller) (*social.Service, *mocks.MockLedger, *contracts.Registry) {
	t.Helper()
	registry := newTestRegistry(t)
	ledger := mocks.NewMockLedger(ctrl)
	service, err := social.NewService(ledger, registry, social.Options{MaxScan: 100})
	require.NoError(t, err)
	return service, ledger, registry
}

type optsWithValue struct {
	value int64
}

func (m optsWithValue) Matches(x interface{}) bool {
	opts, ok := x.(gateway.CallOpts)
	if !ok || opts.Value == nil {
		return false
	}
	return opts.Value.Int64() == m.value
}

func (m optsWithValue) String() string {
	return fmt.Sprintf("call opts carrying value %d", m.value)
}

// gatewayOptsWithValue matches write options by their transferred value
func gatewayOptsWithValue(value int64) gomock.Matcher {
	return optsWithValue{value: value}
}

// communityTuple builds a raw communities(id) return tuple
func communityTuple(name, blob string, policy domain.JoinPolicy, entryFee int64, members int64, active bool) []interface{} {
	return []interface{}{
		name,
		blob,
		uint8(policy),
		big.NewInt(entryFee),
		big.NewInt(members),
		false,
		adminAddr,
		active,
	}
}

// absentCommunity is the sentinel tuple an empty slot reads back as
func absentCommunity() []interface{} {
	return communityTuple("", "", domain.JoinPolicyOpen, 0, 0, false)
}

// postTuple builds a raw posts(id) return tuple
func postTuple(creator common.Address, communityID int64, blob string) []interface{} {
	return []interface{}{
		creator,
		big.NewInt(communityID),
		blob,
		false,
		common.Address{},
		big.NewInt(0),
		false,
		common.Address{},
	}
}

// eventTuple builds a raw events(id) return tuple
func eventTuple(blob string, organizer common.Address, maxTickets, sold, price int64, active bool) []interface{} {
	return []interface{}{
		blob,
		organizer,
		big.NewInt(maxTickets),
		big.NewInt(sold),
		big.NewInt(price),
		active,
	}
}
