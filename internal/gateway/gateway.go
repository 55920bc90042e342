// Package gateway is the single call boundary to the external ledger. Reads
// decode raw values, writes submit signed transactions and confirmation polls
// for inclusion. The gateway performs no retries; retry policy belongs to the
// callers.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/agora-social/agora-sync/internal/adapter"
	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/logger"
)

// DefaultGasLimit is the generous explicit limit used when a caller passes
// none. The gateway never estimates gas: systematic under-estimation against
// these contracts is a known failure mode, so callers own the limit.
const DefaultGasLimit uint64 = 900_000

// CallOpts is the options bag accepted by every write call
type CallOpts struct {
	// Value is the amount of funds transferred with the call, in smallest units
	Value *big.Int
	// GasLimit is the explicit resource limit. Zero selects the gateway's
	// configured default.
	GasLimit uint64
}

// Ledger is the uniform call boundary to the external store
//
//go:generate mockgen -source=gateway.go -destination=../mocks/ledger.go -package=mocks -mock_names=Ledger=MockLedger
type Ledger interface {
	// Read executes a view call and returns the decoded raw field tuple.
	// No caller identity is required and remote state is never mutated.
	Read(ctx context.Context, contract *contracts.Contract, method string, args ...interface{}) ([]interface{}, error)

	// Write submits a signed state-changing transaction and returns its hash.
	// Exactly one remote mutation happens per confirmed transaction.
	Write(ctx context.Context, signer adapter.Signer, contract *contracts.Contract, method string, opts CallOpts, args ...interface{}) (common.Hash, error)

	// Confirm blocks until the transaction is included and returns its
	// receipt, containing the ordered emitted event log.
	Confirm(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type ledger struct {
	client       adapter.EthClient
	clock        adapter.Clock
	chainID      *big.Int
	confirmEvery time.Duration
	defaultGas   uint64
}

// New creates a Ledger over a dialed client. chainID is captured once at
// session establishment; a network switch means a new gateway. A zero
// defaultGas selects DefaultGasLimit.
func New(client adapter.EthClient, clock adapter.Clock, chainID *big.Int, confirmEvery time.Duration, defaultGas uint64) Ledger {
	if confirmEvery <= 0 {
		confirmEvery = 2 * time.Second
	}
	if defaultGas == 0 {
		defaultGas = DefaultGasLimit
	}
	return &ledger{
		client:       client,
		clock:        clock,
		chainID:      chainID,
		confirmEvery: confirmEvery,
		defaultGas:   defaultGas,
	}
}

// Read executes a view call and decodes the raw return tuple
func (l *ledger) Read(ctx context.Context, contract *contracts.Contract, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s.%s: %w", contract.Name, method, err)
	}

	result, err := l.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contract.Address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", contract.Name, method, classifyReadError(err))
	}

	values, err := contract.ABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s.%s: %w", contract.Name, method, err)
	}

	return values, nil
}

// Write builds, signs and submits a transaction. The signer is captured here,
// at call time: replacing the session signer mid-flight does not affect a
// write already started.
func (l *ledger) Write(ctx context.Context, signer adapter.Signer, contract *contracts.Contract, method string, opts CallOpts, args ...interface{}) (common.Hash, error) {
	if signer == nil {
		return common.Hash{}, domain.ErrNotSignedIn
	}

	data, err := contract.ABI.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s.%s: %w", contract.Name, method, err)
	}

	from := signer.Address()
	nonce, err := l.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", classifyReadError(err))
	}

	gasPrice, err := l.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", classifyReadError(err))
	}

	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		gasLimit = l.defaultGas
	}
	value := opts.Value
	if value == nil {
		value = big.NewInt(0)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &contract.Address,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := signer.SignTx(tx, l.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", domain.ErrRejected, err)
	}

	if err := l.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("%s.%s: %w: %v", contract.Name, method, domain.ErrRejected, err)
	}

	logger.DebugCtx(ctx, "Transaction submitted",
		zap.String("contract", contract.Name),
		zap.String("method", method),
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
	)

	return signed.Hash(), nil
}

// Confirm polls for the receipt until inclusion or context expiry. Once a
// transaction is submitted it cannot be retracted: cancellation only stops
// the waiting, never the write.
func (l *ledger) Confirm(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := l.client.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return nil, fmt.Errorf("tx %s: %w", txHash.Hex(), domain.ErrReverted)
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet, keep polling
		default:
			return nil, fmt.Errorf("tx %s: %w", txHash.Hex(), classifyReadError(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("tx %s: %w", txHash.Hex(), domain.ErrTimeout)
		case <-l.clock.After(l.confirmEvery):
		}
	}
}
