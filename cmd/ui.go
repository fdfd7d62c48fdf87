package cmd

import (
	"github.com/bnema/ctix/internal/adapters/tui"
	"github.com/bnema/ctix/internal/application"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newUICmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive ticket browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.close()

			return tui.Run(cmd.Context(), func(presenter application.Presenter) tui.Runner {
				return application.NewSynchronizer(conn.wallet, conn.binder, presenter, application.SynchronizerOptions{
					AutoConnect: true,
					Logger:      app.logger,
				})
			}, tea.WithAltScreen())
		},
	}
}
