// Package writer coordinates state-changing ledger calls: advisory
// precondition checks, submission, confirmation awaiting, and creation-ID
// extraction from the receipt's event log.
//
// Nothing here guarantees exactly-once delivery. If confirmation awaiting is
// interrupted after submission, the outcome of the in-flight transaction is
// unknown and callers must re-check it with an idempotent read.
package writer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/agora-social/agora-sync/internal/adapter"
	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/gateway"
	"github.com/agora-social/agora-sync/internal/logger"
)

// Precondition is a cheap client-side check run before submission. These are
// optimistic and advisory: the ledger remains the final authority and may
// still reject a write that passed every precondition.
type Precondition func(ctx context.Context) error

// Request describes one state-changing call
type Request struct {
	Contract *contracts.Contract
	Method   string
	Args     []interface{}
	Opts     gateway.CallOpts

	// CreationEvent, when set, names the event whose first argument carries
	// the identifier generated by this write.
	CreationEvent string

	Preconditions []Precondition
}

// Result is the outcome of a confirmed write. IDFound is false when no log
// matched the creation event name; CreatedID is meaningless in that case and
// the caller must re-read instead of trusting a fabricated identifier.
type Result struct {
	TxHash    common.Hash
	Receipt   *types.Receipt
	CreatedID uint64
	IDFound   bool
}

// Coordinator submits writes through the gateway
type Coordinator struct {
	ledger   gateway.Ledger
	registry *contracts.Registry
}

// New creates a write coordinator over the given ledger and contract surface
func New(ledger gateway.Ledger, registry *contracts.Registry) *Coordinator {
	return &Coordinator{ledger: ledger, registry: registry}
}

// SubmitAndConfirm runs the request's preconditions, submits the write and
// blocks until it is included. The signer is captured at call time. Nothing
// is retried: precondition, rejection and revert failures go straight back
// to the caller.
func (c *Coordinator) SubmitAndConfirm(ctx context.Context, signer adapter.Signer, req Request) (*Result, error) {
	if signer == nil {
		return nil, domain.ErrNotSignedIn
	}

	for _, check := range req.Preconditions {
		if err := check(ctx); err != nil {
			return nil, err
		}
	}

	txHash, err := c.ledger.Write(ctx, signer, req.Contract, req.Method, req.Opts, req.Args...)
	if err != nil {
		return nil, err
	}

	receipt, err := c.ledger.Confirm(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", req.Contract.Name, req.Method, err)
	}

	result := &Result{TxHash: txHash, Receipt: receipt}
	if req.CreationEvent != "" {
		result.CreatedID, result.IDFound = ExtractCreatedID(c.registry.All(), receipt.Logs, req.CreationEvent)
		if !result.IDFound {
			logger.WarnCtx(ctx, "Creation event not found in receipt",
				zap.String("event", req.CreationEvent),
				zap.String("tx_hash", txHash.Hex()),
			)
		}
	}

	logger.InfoCtx(ctx, "Write confirmed",
		zap.String("contract", req.Contract.Name),
		zap.String("method", req.Method),
		zap.String("tx_hash", txHash.Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
	)

	return result, nil
}
