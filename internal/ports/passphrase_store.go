package ports

import (
	"context"

	"github.com/bnema/ctix/internal/domain"
)

// PassphraseStore keeps keystore passphrases out of the config file, one per
// account. A missing entry is domain.ErrSecretNotFound.
type PassphraseStore interface {
	Passphrase(ctx context.Context, account domain.Address) (string, error)
	SavePassphrase(ctx context.Context, account domain.Address, passphrase string) error
	ForgetPassphrase(ctx context.Context, account domain.Address) error
}
