package cmd

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(wireApp)
}

func buildRootCmd(wire func() (*app, error)) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ctix",
		Short:         "ctix: buy, transfer and check in event tickets on chain",
		Long:          "ctix talks to an EventTicket contract through your wallet: browse the event, buy tickets, transfer them, mark them used at the door and withdraw sales as the organizer.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wire()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	flags := rootCmd.PersistentFlags()
	flags.String("rpc-url", "", "JSON-RPC endpoint (default: the default deployment's)")
	flags.String("keystore", "", "Keystore directory to use as the wallet")
	flags.String("bridge-url", "", "Websocket URL of a wallet bridge")
	flags.String("passphrase-file", "", "File holding the keystore passphrase")
	flags.String("metrics-listen", "", "Serve Prometheus metrics on this address")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("log-file", "", "Write logs to this file")

	for key, flag := range map[string]string{
		keyRPCURL:         "rpc-url",
		keyKeystore:       "keystore",
		keyBridgeURL:      "bridge-url",
		keyPassphraseFile: "passphrase-file",
		keyMetricsListen:  "metrics-listen",
		keyLogLevel:       "log-level",
		keyLogFormat:      "log-format",
		keyLogFile:        "log-file",
	} {
		_ = app.cfg.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return app.setupLogging(cmd.ErrOrStderr(), cmd.Name() == "ui")
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		app.closeLogging()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newEventCmd(app),
		newTicketsCmd(app),
		newBuyCmd(app),
		newUseCmd(app),
		newTransferCmd(app),
		newWithdrawCmd(app),
		newDeploymentCmd(app),
		newWalletCmd(app),
		newUICmd(app),
	)

	return rootCmd
}
