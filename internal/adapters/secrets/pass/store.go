package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
)

const entryPrefix = "ctix/keystore/"

var ErrUnavailable = errors.New("pass command unavailable")

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store keeps passphrases in the pass password manager under
// ctix/keystore/<address>.
type Store struct {
	run runFunc
}

var _ ports.PassphraseStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{run: runPassCommand}
}

func (s *Store) SavePassphrase(ctx context.Context, account domain.Address, passphrase string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := entryFor(account)
	if err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, passphrase+"\n", "insert", "-m", "-f", entry)
	if err != nil {
		return formatError("insert", entry, err, stderr)
	}

	return nil
}

func (s *Store) Passphrase(ctx context.Context, account domain.Address) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, err := entryFor(account)
	if err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		if strings.Contains(stderr, "is not in the password store") {
			return "", fmt.Errorf("pass entry %q: %w", entry, domain.ErrSecretNotFound)
		}
		return "", formatError("show", entry, err, stderr)
	}

	stdout = strings.TrimSuffix(stdout, "\n")
	stdout = strings.TrimSuffix(stdout, "\r")

	return stdout, nil
}

func (s *Store) ForgetPassphrase(ctx context.Context, account domain.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := entryFor(account)
	if err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "", "rm", "-f", entry)
	if err != nil {
		return formatError("rm", entry, err, stderr)
	}

	return nil
}

func entryFor(account domain.Address) (string, error) {
	parsed, err := domain.ParseAddress(account.String())
	if err != nil {
		return "", err
	}
	return entryPrefix + strings.ToLower(parsed.String()), nil
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
}
