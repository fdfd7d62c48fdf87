package ports

import (
	"context"
	"math/big"

	"github.com/bnema/ctix/internal/domain"
	"github.com/ethereum/go-ethereum/core/types"
)

// WalletProvider is the external agent holding keys.
type WalletProvider interface {
	// RequestAccounts asks the wallet for the connected accounts. A refusal
	// is reported as domain.ErrConnectionRejected.
	RequestAccounts(ctx context.Context) ([]domain.Address, error)
	// Subscribe streams account and chain notifications until ctx is done.
	Subscribe(ctx context.Context) <-chan domain.WalletEvent
	Signer(ctx context.Context, account domain.Address) (Signer, error)
}

type Signer interface {
	Account() domain.Address
	ChainID() *big.Int
	SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)
}
