package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/ctix/internal/adapters/render/tickets"
	"github.com/bnema/ctix/internal/application"
	"github.com/spf13/cobra"
)

func newEventCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "event",
		Short: "Show the event, remaining tickets and price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, func(_ context.Context, _ *application.Synchronizer, view *collectingPresenter) error {
				view.mu.Lock()
				session, event := view.session, view.event
				view.mu.Unlock()

				if asJSON {
					return writeJSON(cmd, event)
				}
				return writePage(cmd, app, tickets.Page{Session: &session, Event: event}, tickets.RenderOptions{})
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePage(cmd *cobra.Command, app *app, page tickets.Page, opts tickets.RenderOptions) error {
	rendered, err := app.renderer(page, opts)
	if err != nil {
		return fmt.Errorf("render tickets: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
