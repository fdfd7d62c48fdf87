package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bnema/ctix/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// txArgs is the eth_signTransaction parameter object.
type txArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	Value                *hexutil.Big    `json:"value,omitempty"`
	Data                 hexutil.Bytes   `json:"data,omitempty"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func newTxArgs(from domain.Address, tx *types.Transaction, chainID *big.Int) txArgs {
	args := txArgs{
		From:    common.HexToAddress(from.String()),
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Data:    tx.Data(),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		ChainID: (*hexutil.Big)(chainID),
	}
	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}
	return args
}

type signer struct {
	bridge  *Bridge
	account domain.Address
	chainID *big.Int
}

func (s *signer) Account() domain.Address {
	return s.account
}

func (s *signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// SignTx asks the remote wallet to sign and checks the signature recovers to
// the session account before the transaction is broadcast.
func (s *signer) SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	var raw hexutil.Bytes
	if err := s.bridge.call(ctx, "eth_signTransaction", &raw, newTxArgs(s.account, tx, s.chainID)); err != nil {
		return nil, err
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(raw); err != nil {
		return nil, domain.NewRemoteError("eth_signTransaction", fmt.Errorf("decode signed transaction: %w", err))
	}

	sender, err := types.Sender(types.LatestSignerForChainID(s.chainID), signed)
	if err != nil {
		return nil, domain.NewRemoteError("eth_signTransaction", fmt.Errorf("recover sender: %w", err))
	}
	if !domain.Address(sender.Hex()).Equal(s.account) {
		return nil, domain.NewRemoteError("eth_signTransaction", fmt.Errorf("signed by %s, expected %s", sender.Hex(), s.account))
	}

	return signed, nil
}
