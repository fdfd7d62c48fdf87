package ethereum

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial connects to a JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// Binder binds the ticket contract for a signer, locating the contract on the
// signer's chain.
type Binder struct {
	backend Backend
	locator ports.ContractLocator
	logger  *slog.Logger
}

var _ ports.GatewayBinder = (*Binder)(nil)

func NewBinder(backend Backend, locator ports.ContractLocator, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Binder{backend: backend, locator: locator, logger: logger}
}

func (b *Binder) Bind(ctx context.Context, signer ports.Signer) (ports.ContractGateway, error) {
	chainID := signer.ChainID()
	if chainID == nil || !chainID.IsUint64() {
		return nil, fmt.Errorf("%w: signer has no chain id", domain.ErrInvalidInput)
	}

	rpcChainID, err := b.backend.ChainID(ctx)
	if err != nil {
		return nil, domain.NewRemoteError("eth_chainId", err)
	}
	if rpcChainID.Cmp(chainID) != 0 {
		return nil, fmt.Errorf("%w: wallet is on chain %s but the rpc endpoint serves chain %s", domain.ErrInvalidInput, chainID, rpcChainID)
	}

	deployment, err := b.locator.Locate(ctx, chainID.Uint64())
	if err != nil {
		return nil, fmt.Errorf("locate ticket contract: %w", err)
	}

	gateway, err := NewGateway(deployment.Contract, b.backend, signer)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("bound ticket contract",
		"chain_id", chainID.Uint64(),
		"contract", gateway.Address().String(),
		"account", signer.Account().String(),
	)
	return gateway, nil
}
