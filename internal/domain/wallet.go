package domain

type WalletEventKind string

const (
	WalletAccountsChanged WalletEventKind = "accountsChanged"
	WalletChainChanged    WalletEventKind = "chainChanged"
)

// WalletEvent is a notification pushed by the wallet provider.
type WalletEvent struct {
	Kind     WalletEventKind
	Accounts []Address
	ChainID  uint64
}
