package writer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/agora-social/agora-sync/internal/contracts"
)

// ExtractCreatedID scans a receipt's ordered event log for the first event
// whose NAME matches eventName, decoding each log against the known contract
// ABIs, and returns that event's first argument as the created identifier.
//
// Matching is by name, not position: the creation event need not be the first
// log in the receipt. When no log matches, the second return is false and no
// identifier is fabricated.
func ExtractCreatedID(known []*contracts.Contract, logs []*types.Log, eventName string) (uint64, bool) {
	for _, vLog := range logs {
		if len(vLog.Topics) == 0 {
			continue
		}

		for _, contract := range known {
			event, err := contract.ABI.EventByID(vLog.Topics[0])
			if err != nil || event.Name != eventName {
				continue
			}

			// Creation events carry the new identifier as their first,
			// indexed argument.
			if len(event.Inputs) > 0 && event.Inputs[0].Indexed && len(vLog.Topics) >= 2 {
				return new(big.Int).SetBytes(vLog.Topics[1].Bytes()).Uint64(), true
			}

			// Non-indexed first argument: decode it from the data section
			values, err := contract.ABI.Unpack(eventName, vLog.Data)
			if err != nil || len(values) == 0 {
				continue
			}
			if id, ok := values[0].(*big.Int); ok {
				return id.Uint64(), true
			}
		}
	}

	return 0, false
}
