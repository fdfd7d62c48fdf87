package keystore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"github.com/ethereum/go-ethereum/accounts"
	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const defaultPollInterval = 5 * time.Second

// ChainReader reports the chain the node is serving. *ethclient.Client
// satisfies it.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

type Options struct {
	// Passphrase unlocks accounts for signing. When empty, Passphrases is
	// asked per account; with neither, accounts must already be unlocked.
	Passphrase   string
	Passphrases  ports.PassphraseStore
	PollInterval time.Duration
	Clock        ports.Clock
	Logger       *slog.Logger
}

// Wallet is a ports.WalletProvider backed by a go-ethereum keystore
// directory. The node's chain id stands in for the wallet's network, so a
// chain change is detected by polling it.
type Wallet struct {
	ks    *gethkeystore.KeyStore
	chain ChainReader
	opts  Options

	mu      sync.Mutex
	chainID *big.Int
}

var _ ports.WalletProvider = (*Wallet)(nil)

// Open loads the keystore at dir with standard scrypt parameters.
func Open(dir string, chain ChainReader, opts Options) *Wallet {
	return New(gethkeystore.NewKeyStore(dir, gethkeystore.StandardScryptN, gethkeystore.StandardScryptP), chain, opts)
}

func New(ks *gethkeystore.KeyStore, chain ChainReader, opts Options) *Wallet {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Wallet{ks: ks, chain: chain, opts: opts}
}

// RequestAccounts lists the keystore accounts. With a passphrase configured
// the first account is unlocked; a wrong passphrase counts as a rejection.
func (w *Wallet) RequestAccounts(ctx context.Context) ([]domain.Address, error) {
	list := w.ks.Accounts()
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: keystore has no accounts", domain.ErrWalletUnavailable)
	}

	passphrase, err := w.passphraseFor(ctx, domain.Address(list[0].Address.Hex()))
	if err != nil {
		return nil, err
	}
	if passphrase != "" {
		if err := w.ks.Unlock(list[0], passphrase); err != nil {
			return nil, fmt.Errorf("%w: unlock %s: %v", domain.ErrConnectionRejected, list[0].Address.Hex(), err)
		}
	}

	if _, err := w.currentChainID(ctx); err != nil {
		return nil, err
	}

	return addresses(list), nil
}

func (w *Wallet) Signer(ctx context.Context, account domain.Address) (ports.Signer, error) {
	found, err := w.ks.Find(accounts.Account{Address: common.HexToAddress(account.String())})
	if err != nil {
		return nil, fmt.Errorf("%w: account %s is not in the keystore", domain.ErrWalletUnavailable, account)
	}

	chainID, err := w.currentChainID(ctx)
	if err != nil {
		return nil, err
	}

	passphrase, err := w.passphraseFor(ctx, account)
	if err != nil {
		return nil, err
	}

	return &signer{ks: w.ks, account: found, chainID: chainID, passphrase: passphrase}, nil
}

func (w *Wallet) passphraseFor(ctx context.Context, account domain.Address) (string, error) {
	if w.opts.Passphrase != "" || w.opts.Passphrases == nil {
		return w.opts.Passphrase, nil
	}

	passphrase, err := w.opts.Passphrases.Passphrase(ctx, account)
	switch {
	case err == nil:
		return passphrase, nil
	case errors.Is(err, domain.ErrSecretNotFound):
		w.opts.Logger.Debug("no stored passphrase", slog.String("account", account.String()))
		return "", nil
	default:
		return "", fmt.Errorf("look up passphrase for %s: %w", account, err)
	}
}

// Subscribe reports keystore account arrivals and drops as AccountsChanged
// and node chain id changes as ChainChanged, until ctx is done.
func (w *Wallet) Subscribe(ctx context.Context) <-chan domain.WalletEvent {
	out := make(chan domain.WalletEvent)
	sink := make(chan accounts.WalletEvent, 8)
	sub := w.ks.Subscribe(sink)
	ticker := w.opts.Clock.NewTicker(w.opts.PollInterval)

	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		defer ticker.Stop()

		emit := func(event domain.WalletEvent) bool {
			select {
			case out <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err != nil {
					w.opts.Logger.Warn("keystore subscription ended", "error", err)
				}
				return
			case event := <-sink:
				if event.Kind != accounts.WalletArrived && event.Kind != accounts.WalletDropped {
					continue
				}
				if !emit(domain.WalletEvent{Kind: domain.WalletAccountsChanged, Accounts: addresses(w.ks.Accounts())}) {
					return
				}
			case <-ticker.C:
				chainID, changed, err := w.pollChainID(ctx)
				if err != nil {
					w.opts.Logger.Debug("poll chain id failed", "error", err)
					continue
				}
				if changed && !emit(domain.WalletEvent{Kind: domain.WalletChainChanged, ChainID: chainID.Uint64()}) {
					return
				}
			}
		}
	}()

	return out
}

func (w *Wallet) currentChainID(ctx context.Context) (*big.Int, error) {
	w.mu.Lock()
	cached := w.chainID
	w.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}

	chainID, _, err := w.pollChainID(ctx)
	return chainID, err
}

// pollChainID refreshes the cached chain id and reports whether it moved.
func (w *Wallet) pollChainID(ctx context.Context) (*big.Int, bool, error) {
	chainID, err := w.chain.ChainID(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read chain id: %v", domain.ErrWalletUnavailable, err)
	}
	if !chainID.IsUint64() {
		return nil, false, fmt.Errorf("%w: chain id %s out of range", domain.ErrWalletUnavailable, chainID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	changed := w.chainID != nil && w.chainID.Cmp(chainID) != 0
	w.chainID = new(big.Int).Set(chainID)

	return new(big.Int).Set(chainID), changed, nil
}

type signer struct {
	ks         *gethkeystore.KeyStore
	account    accounts.Account
	chainID    *big.Int
	passphrase string
}

func (s *signer) Account() domain.Address {
	return domain.Address(s.account.Address.Hex())
}

func (s *signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

func (s *signer) SignTx(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	var (
		signed *types.Transaction
		err    error
	)
	if s.passphrase != "" {
		signed, err = s.ks.SignTxWithPassphrase(s.account, s.passphrase, tx, s.chainID)
	} else {
		signed, err = s.ks.SignTx(s.account, tx, s.chainID)
	}

	switch {
	case err == nil:
		return signed, nil
	case errors.Is(err, gethkeystore.ErrLocked), errors.Is(err, gethkeystore.ErrDecrypt):
		return nil, fmt.Errorf("%w: %v", domain.ErrConnectionRejected, err)
	default:
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
}

func addresses(list []accounts.Account) []domain.Address {
	out := make([]domain.Address, 0, len(list))
	for _, account := range list {
		out = append(out, domain.Address(account.Address.Hex()))
	}
	return out
}
