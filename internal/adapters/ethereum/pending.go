package ethereum

import (
	"context"
	"fmt"

	"github.com/bnema/ctix/internal/domain"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type pendingTx struct {
	tx         *types.Transaction
	method     string
	backend    bind.DeployBackend
	contract   common.Address
	transferID common.Hash
}

func (p *pendingTx) Hash() string {
	return p.tx.Hash().Hex()
}

// Wait blocks until the transaction is mined. A reverted transaction is a
// remote rejection.
func (p *pendingTx) Wait(ctx context.Context) (domain.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, p.backend, p.tx)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return domain.Receipt{}, domain.NewRemoteError(p.method, fmt.Errorf("transaction %s reverted", receipt.TxHash.Hex()))
	}

	out := domain.Receipt{
		TxHash: receipt.TxHash.Hex(),
		Minted: mintedTickets(receipt.Logs, p.contract, p.transferID),
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}

	return out, nil
}

// mintedTickets picks the token ids of Transfer events from the zero address
// emitted by contract.
func mintedTickets(logs []*types.Log, contract common.Address, transferID common.Hash) []domain.TicketID {
	var minted []domain.TicketID
	for _, log := range logs {
		if log == nil || log.Address != contract || len(log.Topics) != 4 {
			continue
		}
		if log.Topics[0] != transferID || log.Topics[1] != (common.Hash{}) {
			continue
		}
		id := log.Topics[3].Big()
		if !id.IsUint64() {
			continue
		}
		minted = append(minted, domain.TicketID(id.Uint64()))
	}
	return minted
}
