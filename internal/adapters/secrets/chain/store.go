package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/ctix/internal/adapters/secrets/file"
	passstore "github.com/bnema/ctix/internal/adapters/secrets/pass"
	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
)

// Store reads and writes through primary, falling back to the second backend
// when primary fails for any reason other than cancellation.
type Store struct {
	primary  ports.PassphraseStore
	fallback ports.PassphraseStore
}

var _ ports.PassphraseStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary passphrase store is nil")
	errNilFallbackStore = errors.New("fallback passphrase store is nil")
)

func NewStore(primary ports.PassphraseStore, fallback ports.PassphraseStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.PassphraseStore, fallback ports.PassphraseStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) SavePassphrase(ctx context.Context, account domain.Address, passphrase string) error {
	err := s.primary.SavePassphrase(ctx, account, passphrase)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.SavePassphrase(ctx, account, passphrase)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend save failed: %w; fallback backend save failed: %w", err, fallbackErr)
}

func (s *Store) Passphrase(ctx context.Context, account domain.Address) (string, error) {
	value, err := s.primary.Passphrase(ctx, account)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Passphrase(ctx, account)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary backend lookup failed: %w; fallback backend lookup failed: %w", err, fallbackErr)
}

// ForgetPassphrase clears both backends so a stale fallback copy cannot
// resurface after the primary entry is removed.
func (s *Store) ForgetPassphrase(ctx context.Context, account domain.Address) error {
	err := s.primary.ForgetPassphrase(ctx, account)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.ForgetPassphrase(ctx, account)
	switch {
	case err == nil:
		return fallbackErr
	case fallbackErr == nil:
		return nil
	default:
		return fmt.Errorf("primary backend forget failed: %w; fallback backend forget failed: %w", err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
