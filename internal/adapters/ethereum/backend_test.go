package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/bnema/ctix/internal/domain"
	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type callHandler func(args []interface{}) ([]interface{}, error)

// fakeBackend answers contract calls from handlers keyed by method name and
// mines every sent transaction immediately.
type fakeBackend struct {
	abi     abi.ABI
	chainID *big.Int

	mu       sync.Mutex
	handlers map[string]callHandler
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	status   uint64
	logs     func(tx *types.Transaction) []*types.Log
}

func newFakeBackend() *fakeBackend {
	parsed, err := TicketABI()
	if err != nil {
		panic(err)
	}
	return &fakeBackend{
		abi:      parsed,
		chainID:  big.NewInt(31337),
		handlers: map[string]callHandler{},
		receipts: map[common.Hash]*types.Receipt{},
		status:   types.ReceiptStatusSuccessful,
	}
}

func (f *fakeBackend) returns(method string, values ...interface{}) {
	f.handlers[method] = func([]interface{}) ([]interface{}, error) { return values, nil }
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, call geth.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	handler, ok := f.handlers[method.Name]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no handler for %s", method.Name)
	}

	values, err := handler(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(values...)
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (f *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, geth.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, tx)
	receipt := &types.Receipt{
		Status:      f.status,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(len(f.sent) + 10)),
	}
	if f.logs != nil {
		receipt.Logs = f.logs(tx)
	}
	f.receipts[tx.Hash()] = receipt
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	receipt, ok := f.receipts[hash]
	if !ok {
		return nil, geth.NotFound
	}
	return receipt, nil
}

func (f *fakeBackend) FilterLogs(context.Context, geth.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (f *fakeBackend) SubscribeFilterLogs(context.Context, geth.FilterQuery, chan<- types.Log) (geth.Subscription, error) {
	return nil, errors.New("subscriptions are not supported")
}

func (f *fakeBackend) lastSent() *types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

type stubSigner struct {
	account domain.Address
	chainID *big.Int
	err     error
}

func (s stubSigner) Account() domain.Address { return s.account }
func (s stubSigner) ChainID() *big.Int       { return s.chainID }

func (s stubSigner) SignTx(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return tx, nil
}

type stubLocator struct {
	deployment domain.Deployment
	err        error
}

func (l stubLocator) Locate(_ context.Context, chainID uint64) (domain.Deployment, error) {
	if l.err != nil {
		return domain.Deployment{}, l.err
	}
	deployment := l.deployment
	deployment.ChainID = chainID
	return deployment, nil
}
