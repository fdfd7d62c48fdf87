package application

import (
	"context"
	"fmt"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
)

// Session is the client's identity at one version. It is replaced wholesale
// whenever the account changes; IsOwner only describes Account.
type Session struct {
	Version  uint64
	Account  domain.Address
	Provider ports.WalletProvider
	Signer   ports.Signer
	Gateway  ports.ContractGateway
	IsOwner  bool
}

func (s Session) HasAccount() bool {
	return !s.Account.IsZero()
}

// Live reports whether contract calls can be made under this session.
func (s Session) Live() bool {
	return s.HasAccount() && s.Gateway != nil && s.Signer != nil
}

type SessionManager struct {
	wallet ports.WalletProvider
	binder ports.GatewayBinder
}

func NewSessionManager(wallet ports.WalletProvider, binder ports.GatewayBinder) *SessionManager {
	return &SessionManager{wallet: wallet, binder: binder}
}

// Establish builds signer and gateway for account and computes the owner flag.
// The previous session is never touched; the caller swaps in the result.
func (m *SessionManager) Establish(ctx context.Context, version uint64, account domain.Address) (Session, error) {
	if m.wallet == nil {
		return Session{}, domain.ErrWalletUnavailable
	}
	if account.IsZero() {
		return Session{}, fmt.Errorf("establish session: %w", domain.ErrNotConnected)
	}

	signer, err := m.wallet.Signer(ctx, account)
	if err != nil {
		return Session{}, fmt.Errorf("get signer for %s: %w", account, err)
	}

	gateway, err := m.binder.Bind(ctx, signer)
	if err != nil {
		return Session{}, fmt.Errorf("bind ticket contract: %w", err)
	}

	owner, err := gateway.Owner(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("query contract owner: %w", err)
	}

	return Session{
		Version:  version,
		Account:  account,
		Provider: m.wallet,
		Signer:   signer,
		Gateway:  gateway,
		IsOwner:  owner.Equal(account),
	}, nil
}

// Pending is the session recorded as soon as an account is announced, before
// its signer and gateway exist.
func (m *SessionManager) Pending(version uint64, account domain.Address) Session {
	return Session{Version: version, Account: account, Provider: m.wallet}
}

func (m *SessionManager) Clear(version uint64) Session {
	return Session{Version: version, Provider: m.wallet}
}
