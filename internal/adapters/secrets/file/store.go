package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
)

const (
	storeDirMode  = 0o700
	secretFileMod = 0o600
)

// Store keeps one passphrase file per account under root.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.PassphraseStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) SavePassphrase(ctx context.Context, account domain.Address, passphrase string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathFor(account)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create passphrase directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(passphrase), secretFileMod); err != nil {
		return fmt.Errorf("write passphrase for %s: %w", account, err)
	}

	return nil
}

func (s *Store) Passphrase(ctx context.Context, account domain.Address) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathFor(account)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("passphrase file for %s: %w", account, domain.ErrSecretNotFound)
		}
		return "", fmt.Errorf("read passphrase for %s: %w", account, err)
	}

	return string(data), nil
}

func (s *Store) ForgetPassphrase(ctx context.Context, account domain.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathFor(account)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete passphrase for %s: %w", account, err)
	}

	return nil
}

// pathFor names the file after the lower-cased address so both spellings of
// an account share one entry.
func (s *Store) pathFor(account domain.Address) (string, error) {
	parsed, err := domain.ParseAddress(account.String())
	if err != nil {
		return "", err
	}

	return filepath.Join(s.root, strings.ToLower(parsed.String())), nil
}
