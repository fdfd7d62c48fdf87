package ports

import (
	"context"
	"math/big"

	"github.com/bnema/ctix/internal/domain"
)

// ContractGateway is the typed façade over one deployed ticket contract.
// Queries have no side effects and may run concurrently. Commands return once
// the transaction is submitted; callers Wait on the PendingTx for the outcome.
// Failures are *domain.RemoteError values.
type ContractGateway interface {
	Address() domain.Address

	Owner(ctx context.Context) (domain.Address, error)
	EventName(ctx context.Context) (string, error)
	EventDate(ctx context.Context) (string, error)
	EventVenue(ctx context.Context) (string, error)
	MaxSupply(ctx context.Context) (uint64, error)
	TotalSupply(ctx context.Context) (uint64, error)
	UnitPrice(ctx context.Context) (*big.Int, error)
	BalanceOf(ctx context.Context, account domain.Address) (uint64, error)
	TokenOfOwnerByIndex(ctx context.Context, account domain.Address, index uint64) (domain.TicketID, error)
	TicketMetadata(ctx context.Context, id domain.TicketID) (string, error)
	IsTicketUsed(ctx context.Context, id domain.TicketID) (bool, error)

	Mint(ctx context.Context, payment *big.Int) (PendingTx, error)
	MarkUsed(ctx context.Context, id domain.TicketID) (PendingTx, error)
	Transfer(ctx context.Context, from, to domain.Address, id domain.TicketID) (PendingTx, error)
	Withdraw(ctx context.Context) (PendingTx, error)
}

type PendingTx interface {
	Hash() string
	Wait(ctx context.Context) (domain.Receipt, error)
}

// GatewayBinder binds a gateway to the signer's account on the signer's chain.
type GatewayBinder interface {
	Bind(ctx context.Context, signer Signer) (ContractGateway, error)
}
