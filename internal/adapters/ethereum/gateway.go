package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is what the gateway needs from a node connection. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Gateway is the go-ethereum implementation of ports.ContractGateway. A nil
// signer gives a read-only gateway.
type Gateway struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	backend  Backend
	signer   ports.Signer
}

var _ ports.ContractGateway = (*Gateway)(nil)

func NewGateway(address domain.Address, backend Backend, signer ports.Signer) (*Gateway, error) {
	if !common.IsHexAddress(address.String()) {
		return nil, fmt.Errorf("%w: contract address %q", domain.ErrInvalidInput, address)
	}

	parsed, err := TicketABI()
	if err != nil {
		return nil, err
	}

	contractAddress := common.HexToAddress(address.String())
	return &Gateway{
		address:  contractAddress,
		abi:      parsed,
		contract: bind.NewBoundContract(contractAddress, parsed, backend, backend, backend),
		backend:  backend,
		signer:   signer,
	}, nil
}

func (g *Gateway) Address() domain.Address {
	return domain.Address(g.address.Hex())
}

func (g *Gateway) Owner(ctx context.Context) (domain.Address, error) {
	return g.callAddress(ctx, "owner")
}

func (g *Gateway) EventName(ctx context.Context) (string, error) {
	return g.callString(ctx, "eventName")
}

func (g *Gateway) EventDate(ctx context.Context) (string, error) {
	return g.callString(ctx, "eventDate")
}

func (g *Gateway) EventVenue(ctx context.Context) (string, error) {
	return g.callString(ctx, "eventVenue")
}

func (g *Gateway) MaxSupply(ctx context.Context) (uint64, error) {
	return g.callUint64(ctx, "maxTickets")
}

func (g *Gateway) TotalSupply(ctx context.Context) (uint64, error) {
	return g.callUint64(ctx, "totalSupply")
}

func (g *Gateway) UnitPrice(ctx context.Context) (*big.Int, error) {
	return g.callBig(ctx, "TICKET_PRICE")
}

func (g *Gateway) BalanceOf(ctx context.Context, account domain.Address) (uint64, error) {
	return g.callUint64(ctx, "balanceOf", common.HexToAddress(account.String()))
}

func (g *Gateway) TokenOfOwnerByIndex(ctx context.Context, account domain.Address, index uint64) (domain.TicketID, error) {
	id, err := g.callUint64(ctx, "tokenOfOwnerByIndex", common.HexToAddress(account.String()), new(big.Int).SetUint64(index))
	return domain.TicketID(id), err
}

func (g *Gateway) TicketMetadata(ctx context.Context, id domain.TicketID) (string, error) {
	return g.callString(ctx, "getTicketMetadata", tokenID(id))
}

func (g *Gateway) IsTicketUsed(ctx context.Context, id domain.TicketID) (bool, error) {
	out, err := g.call(ctx, "isTicketUsed", tokenID(id))
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (g *Gateway) Mint(ctx context.Context, payment *big.Int) (ports.PendingTx, error) {
	return g.transact(ctx, payment, "mintTicket")
}

func (g *Gateway) MarkUsed(ctx context.Context, id domain.TicketID) (ports.PendingTx, error) {
	return g.transact(ctx, nil, "useTicket", tokenID(id))
}

func (g *Gateway) Transfer(ctx context.Context, from, to domain.Address, id domain.TicketID) (ports.PendingTx, error) {
	return g.transact(ctx, nil, "transferFrom", common.HexToAddress(from.String()), common.HexToAddress(to.String()), tokenID(id))
}

func (g *Gateway) Withdraw(ctx context.Context) (ports.PendingTx, error) {
	return g.transact(ctx, nil, "withdraw")
}

func (g *Gateway) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	opts := &bind.CallOpts{Context: ctx}
	if g.signer != nil {
		opts.From = common.HexToAddress(g.signer.Account().String())
	}

	var out []interface{}
	if err := g.contract.Call(opts, &out, method, args...); err != nil {
		return nil, domain.NewRemoteError(method, err)
	}
	if len(out) == 0 {
		return nil, domain.NewRemoteError(method, errors.New("empty result"))
	}

	return out, nil
}

func (g *Gateway) callString(ctx context.Context, method string, args ...interface{}) (string, error) {
	out, err := g.call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (g *Gateway) callAddress(ctx context.Context, method string, args ...interface{}) (domain.Address, error) {
	out, err := g.call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	addr := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return domain.Address(addr.Hex()), nil
}

func (g *Gateway) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := g.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (g *Gateway) callUint64(ctx context.Context, method string, args ...interface{}) (uint64, error) {
	value, err := g.callBig(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	if value == nil || !value.IsUint64() {
		return 0, domain.NewRemoteError(method, fmt.Errorf("value %v does not fit in uint64", value))
	}
	return value.Uint64(), nil
}

func (g *Gateway) transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (ports.PendingTx, error) {
	if g.signer == nil {
		return nil, fmt.Errorf("%s: %w", method, domain.ErrWalletUnavailable)
	}

	signer := g.signer
	opts := &bind.TransactOpts{
		From:    common.HexToAddress(signer.Account().String()),
		Context: ctx,
		Value:   value,
	}
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if from != opts.From {
			return nil, bind.ErrNotAuthorized
		}
		return signer.SignTx(ctx, tx)
	}

	tx, err := g.contract.Transact(opts, method, args...)
	if err != nil {
		if errors.Is(err, domain.ErrConnectionRejected) || errors.Is(err, domain.ErrWalletUnavailable) {
			return nil, fmt.Errorf("sign %s: %w", method, err)
		}
		return nil, domain.NewRemoteError(method, err)
	}

	return &pendingTx{
		tx:         tx,
		method:     method,
		backend:    g.backend,
		contract:   g.address,
		transferID: g.abi.Events["Transfer"].ID,
	}, nil
}

func tokenID(id domain.TicketID) *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}
