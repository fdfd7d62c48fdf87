package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/ctix/internal/domain"
	"github.com/spf13/cobra"
)

func newWalletCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage local wallet settings",
	}

	passphrase := &cobra.Command{
		Use:   "passphrase",
		Short: "Store or forget keystore passphrases",
	}
	passphrase.AddCommand(
		newWalletPassphraseSetCmd(app),
		newWalletPassphraseForgetCmd(app),
	)

	cmd.AddCommand(passphrase)
	return cmd
}

func newWalletPassphraseSetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set ACCOUNT",
		Short: "Store the passphrase for a keystore account, read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}

			value, err := readPassphrase(cmd.InOrStdin())
			if err != nil {
				return err
			}

			if err := app.passphrases.SavePassphrase(cmd.Context(), account, value); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Passphrase stored for %s\n", account)
			return err
		},
	}
}

func newWalletPassphraseForgetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forget ACCOUNT",
		Short: "Remove the stored passphrase for a keystore account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}

			if err := app.passphrases.ForgetPassphrase(cmd.Context(), account); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Passphrase removed for %s\n", account)
			return err
		},
	}
}

// readPassphrase takes the first line of r without its line ending.
func readPassphrase(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read passphrase: %w", err)
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%w: empty passphrase", domain.ErrInvalidInput)
	}
	return line, nil
}
