package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/ctix/internal/application"
	"github.com/bnema/ctix/internal/domain"
	"github.com/spf13/cobra"
)

func newBuyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "buy",
		Short: "Buy one ticket at the current price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, app, "Purchasing ticket...", application.Buy{})
		},
	}
}

func newUseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use TICKET_ID",
		Short: "Mark a ticket as used",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseTicketID(args[0])
			if err != nil {
				return err
			}
			return runAction(cmd, app, fmt.Sprintf("Marking ticket #%s as used...", id), application.MarkUsed{ID: id})
		},
	}
}

func newTransferCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer TICKET_ID RECIPIENT",
		Short: "Transfer a ticket to another address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseTicketID(args[0])
			if err != nil {
				return err
			}
			return runAction(cmd, app, fmt.Sprintf("Transferring ticket #%s...", id), application.Transfer{ID: id, Recipient: args[1]})
		},
	}
}

func newWithdrawCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw ticket sales to the organizer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, app, "Withdrawing funds...", application.Withdraw{})
		},
	}
}

// runAction submits msg and waits for its confirmation and follow-up refresh.
func runAction(cmd *cobra.Command, app *app, label string, msg application.Message) error {
	return withSession(cmd, app, func(ctx context.Context, synchronizer *application.Synchronizer, view *collectingPresenter) error {
		err := runActionSpinner(ctx, cmd.ErrOrStderr(), label, view.lastNotice, func(ctx context.Context) error {
			return synchronizer.Request(ctx, msg)
		})
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), view.lastNotice())
		return err
	})
}
