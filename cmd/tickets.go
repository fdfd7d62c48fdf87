package cmd

import (
	"context"

	"github.com/bnema/ctix/internal/adapters/render/tickets"
	"github.com/bnema/ctix/internal/application"
	"github.com/bnema/ctix/internal/domain"
	"github.com/spf13/cobra"
)

func newTicketsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List the tickets owned by the connected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTicketsList(cmd, app, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	cmd.AddCommand(
		newTicketsListCmd(app),
		newTicketsShowCmd(app),
	)

	return cmd
}

func newTicketsListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List owned tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTicketsList(cmd, app, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runTicketsList(cmd *cobra.Command, app *app, asJSON bool) error {
	return withSession(cmd, app, func(_ context.Context, _ *application.Synchronizer, view *collectingPresenter) error {
		view.mu.Lock()
		session, cards := view.session, view.cards
		view.mu.Unlock()

		if asJSON {
			return writeJSON(cmd, cards)
		}
		return writePage(cmd, app, tickets.Page{Session: &session, Tickets: cards}, tickets.RenderOptions{ShowTickets: true})
	})
}

func newTicketsShowCmd(app *app) *cobra.Command {
	var asJSON bool
	var noQR bool

	cmd := &cobra.Command{
		Use:   "show TICKET_ID",
		Short: "Show one ticket with its entry QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseTicketID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd, app, func(ctx context.Context, synchronizer *application.Synchronizer, view *collectingPresenter) error {
				if err := synchronizer.Request(ctx, application.SelectTicket{ID: id}); err != nil {
					return err
				}

				view.mu.Lock()
				detail := view.detail
				view.mu.Unlock()

				if asJSON {
					return writeJSON(cmd, detail)
				}
				return writePage(cmd, app, tickets.Page{Detail: detail}, tickets.RenderOptions{HideQR: noQR})
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "Do not print the QR code")

	return cmd
}
