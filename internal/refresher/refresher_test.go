package refresher_test

import (
	"context"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora-sync/internal/adapter"
	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/logger"
	"github.com/agora-social/agora-sync/internal/mocks"
	"github.com/agora-social/agora-sync/internal/refresher"
	"github.com/agora-social/agora-sync/internal/social"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestService(t *testing.T, ctrl *gomock.Controller) (*social.Service, *mocks.MockLedger, *contracts.Registry) {
	t.Helper()
	registry, err := contracts.NewRegistry(contracts.Addresses{
		CommunityHub:    "0x1111111111111111111111111111111111111111",
		ContentRegistry: "0x2222222222222222222222222222222222222222",
		EventTicketing:  "0x3333333333333333333333333333333333333333",
		ProfileRegistry: "0x4444444444444444444444444444444444444444",
	})
	require.NoError(t, err)

	ledger := mocks.NewMockLedger(ctrl)
	service, err := social.NewService(ledger, registry, social.Options{MaxScan: 10})
	require.NoError(t, err)
	return service, ledger, registry
}

// expectEmptyLedger wires an empty world: no communities, no events
func expectEmptyLedger(ledger *mocks.MockLedger, registry *contracts.Registry) {
	ledger.EXPECT().
		Read(gomock.Any(), registry.CommunityHub, "communityCount").
		Return([]interface{}{big.NewInt(0)}, nil).
		AnyTimes()
	ledger.EXPECT().
		Read(gomock.Any(), registry.EventTicketing, "events", gomock.Any()).
		Return([]interface{}{
			"",
			common.Address{},
			big.NewInt(0),
			big.NewInt(0),
			big.NewInt(0),
			false,
		}, nil).
		AnyTimes()
}

func TestStartAndStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, ledger, registry := newTestService(t, ctrl)
	expectEmptyLedger(ledger, registry)

	r := refresher.New(refresher.Config{
		Interval:        10 * time.Millisecond,
		MaxRetryElapsed: 10 * time.Millisecond,
	}, service, adapter.NewClock())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Start(context.Background()))
	}()

	// Let at least one pass run before stopping
	time.Sleep(50 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
	wg.Wait()
}

func TestStart_SecondCallRefused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, ledger, registry := newTestService(t, ctrl)
	expectEmptyLedger(ledger, registry)

	r := refresher.New(refresher.Config{Interval: time.Hour}, service, adapter.NewClock())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Start(ctx))
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Error(t, r.Start(ctx))

	cancel()
	wg.Wait()
}

func TestStop_BeforeStartIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, _, _ := newTestService(t, ctrl)
	r := refresher.New(refresher.Config{Interval: time.Hour}, service, adapter.NewClock())

	assert.NoError(t, r.Stop(context.Background()))
}
