package gateway_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/gateway"
	"github.com/agora-social/agora-sync/internal/logger"
	"github.com/agora-social/agora-sync/internal/mocks"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var testChainID = big.NewInt(8453)

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

func TestRead_DecodesReturnTuple(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := newTestRegistry(t)
	client := mocks.NewMockEthClient(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			assert.Equal(t, registry.CommunityHub.Address, *msg.To)
			return common.BigToHash(big.NewInt(7)).Bytes(), nil
		})

	values, err := ledger.Read(context.Background(), registry.CommunityHub, "communityCount")
	require.NoError(t, err)
	require.Len(t, values, 1)
	count, ok := values[0].(*big.Int)
	require.True(t, ok)
	assert.Equal(t, int64(7), count.Int64())
}

func TestRead_ClassifiesTransportFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := newTestRegistry(t)
	client := mocks.NewMockEthClient(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(nil, errors.New("dial tcp: connection refused"))

	_, err := ledger.Read(context.Background(), registry.CommunityHub, "communityCount")
	assert.ErrorIs(t, err, domain.ErrUnreachable)
}

func TestRead_ClassifiesRevert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := newTestRegistry(t)
	client := mocks.NewMockEthClient(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(nil, errors.New("execution reverted"))

	_, err := ledger.Read(context.Background(), registry.CommunityHub, "communities", big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrReverted)
}

func TestRead_ClassifiesDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := newTestRegistry(t)
	client := mocks.NewMockEthClient(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(nil, context.DeadlineExceeded)

	_, err := ledger.Read(context.Background(), registry.CommunityHub, "communityCount")
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestWrite_NilSigner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := newTestRegistry(t)
	ledger := gateway.New(mocks.NewMockEthClient(ctrl), mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	_, err := ledger.Write(context.Background(), nil, registry.CommunityHub, "leaveCommunity", gateway.CallOpts{}, big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrNotSignedIn)
}

func TestWrite_SubmitsSignedLegacyTx(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := newTestRegistry(t)
	client := mocks.NewMockEthClient(ctrl)
	signer := mocks.NewMockSigner(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	from := common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01")
	gasPrice := big.NewInt(2_000_000_000)

	signer.EXPECT().Address().Return(from)
	client.EXPECT().PendingNonceAt(gomock.Any(), from).Return(uint64(4), nil)
	client.EXPECT().SuggestGasPrice(gomock.Any()).Return(gasPrice, nil)
	signer.EXPECT().
		SignTx(gomock.Any(), testChainID).
		DoAndReturn(func(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
			assert.Equal(t, uint64(4), tx.Nonce())
			assert.Equal(t, registry.CommunityHub.Address, *tx.To())
			assert.Equal(t, gateway.DefaultGasLimit, tx.Gas())
			assert.Equal(t, gasPrice, tx.GasPrice())
			assert.Equal(t, int64(25), tx.Value().Int64())
			return tx, nil
		})

	var sent *types.Transaction
	client.EXPECT().
		SendTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
			sent = tx
			return nil
		})

	hash, err := ledger.Write(context.Background(), signer, registry.CommunityHub, "joinCommunity",
		gateway.CallOpts{Value: big.NewInt(25)}, big.NewInt(9))
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, sent.Hash(), hash)
}

func TestWrite_ExplicitGasLimitOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := newTestRegistry(t)
	client := mocks.NewMockEthClient(ctrl)
	signer := mocks.NewMockSigner(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	signer.EXPECT().Address().Return(common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01"))
	client.EXPECT().PendingNonceAt(gomock.Any(), gomock.Any()).Return(uint64(0), nil)
	client.EXPECT().SuggestGasPrice(gomock.Any()).Return(big.NewInt(1), nil)
	signer.EXPECT().
		SignTx(gomock.Any(), testChainID).
		DoAndReturn(func(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
			assert.Equal(t, uint64(150_000), tx.Gas())
			return tx, nil
		})
	client.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(nil)

	_, err := ledger.Write(context.Background(), signer, registry.CommunityHub, "leaveCommunity",
		gateway.CallOpts{GasLimit: 150_000}, big.NewInt(9))
	require.NoError(t, err)
}

func TestWrite_SubmissionRefused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := newTestRegistry(t)
	client := mocks.NewMockEthClient(ctrl)
	signer := mocks.NewMockSigner(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	signer.EXPECT().Address().Return(common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01"))
	client.EXPECT().PendingNonceAt(gomock.Any(), gomock.Any()).Return(uint64(0), nil)
	client.EXPECT().SuggestGasPrice(gomock.Any()).Return(big.NewInt(1), nil)
	signer.EXPECT().
		SignTx(gomock.Any(), testChainID).
		DoAndReturn(func(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
			return tx, nil
		})
	client.EXPECT().
		SendTransaction(gomock.Any(), gomock.Any()).
		Return(errors.New("insufficient funds for gas * price + value"))

	_, err := ledger.Write(context.Background(), signer, registry.CommunityHub, "leaveCommunity",
		gateway.CallOpts{}, big.NewInt(9))
	assert.ErrorIs(t, err, domain.ErrRejected)
}

func TestConfirm_ReturnsReceiptOnInclusion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	txHash := common.HexToHash("0xdddd")
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(50)}
	client.EXPECT().TransactionReceipt(gomock.Any(), txHash).Return(receipt, nil)

	got, err := ledger.Confirm(context.Background(), txHash)
	require.NoError(t, err)
	assert.Equal(t, receipt, got)
}

func TestConfirm_PollsUntilMined(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	clock := mocks.NewMockClock(ctrl)
	ledger := gateway.New(client, clock, testChainID, time.Second, 0)

	fired := make(chan time.Time, 1)
	fired <- time.Now()
	var tick <-chan time.Time = fired
	clock.EXPECT().After(time.Second).Return(tick)

	txHash := common.HexToHash("0xeeee")
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(51)}
	gomock.InOrder(
		client.EXPECT().TransactionReceipt(gomock.Any(), txHash).Return(nil, ethereum.NotFound),
		client.EXPECT().TransactionReceipt(gomock.Any(), txHash).Return(receipt, nil),
	)

	got, err := ledger.Confirm(context.Background(), txHash)
	require.NoError(t, err)
	assert.Equal(t, receipt, got)
}

func TestConfirm_RevertedTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	ledger := gateway.New(client, mocks.NewMockClock(ctrl), testChainID, time.Second, 0)

	txHash := common.HexToHash("0xffff")
	client.EXPECT().
		TransactionReceipt(gomock.Any(), txHash).
		Return(&types.Receipt{Status: types.ReceiptStatusFailed}, nil)

	_, err := ledger.Confirm(context.Background(), txHash)
	assert.ErrorIs(t, err, domain.ErrReverted)
}

func TestConfirm_ContextExpiryIsTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	clock := mocks.NewMockClock(ctrl)
	ledger := gateway.New(client, clock, testChainID, time.Second, 0)

	var never <-chan time.Time
	clock.EXPECT().After(time.Second).Return(never).AnyTimes()

	txHash := common.HexToHash("0x1234")
	client.EXPECT().
		TransactionReceipt(gomock.Any(), txHash).
		Return(nil, ethereum.NotFound).
		AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ledger.Confirm(ctx, txHash)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
