package cmd

import (
	"fmt"
	"strconv"

	"github.com/bnema/ctix/internal/application"
	"github.com/spf13/cobra"
)

func newDeploymentCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployment",
		Short: "Manage where the ticket contract is deployed",
	}

	cmd.AddCommand(
		newDeploymentAddCmd(app),
		newDeploymentListCmd(app),
		newDeploymentUseCmd(app),
	)

	return cmd
}

func newDeploymentAddCmd(app *app) *cobra.Command {
	var input application.AddDeploymentCommand

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record the contract address for a chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deployment, err := app.deployments.Add(cmd.Context(), input)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: %s\n", deployment.Label(), deployment.Contract)
			return err
		},
	}

	cmd.Flags().Uint64Var(&input.ChainID, "chain-id", 0, "Chain id the contract lives on")
	cmd.Flags().StringVar(&input.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&input.RPCURL, "rpc-url", "", "JSON-RPC endpoint for the chain")
	cmd.Flags().StringVar(&input.Contract, "contract", "", "Contract address")
	cmd.Flags().BoolVar(&input.Default, "default", false, "Make this the default deployment")
	_ = cmd.MarkFlagRequired("chain-id")
	_ = cmd.MarkFlagRequired("rpc-url")
	_ = cmd.MarkFlagRequired("contract")

	return cmd
}

func newDeploymentListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded deployments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deployments, err := app.deployments.List(cmd.Context())
			if err != nil {
				return err
			}

			for _, deployment := range deployments {
				marker := " "
				if deployment.Default {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d\t%s\t%s\t%s\n", marker, deployment.ChainID, deployment.Name, deployment.Contract, deployment.RPCURL)
			}

			return nil
		},
	}
}

func newDeploymentUseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use CHAIN_ID",
		Short: "Make a recorded deployment the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chainID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse chain id %q: %w", args[0], err)
			}

			deployment, err := app.deployments.Use(cmd.Context(), chainID)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Default deployment: %s\n", deployment.Label())
			return err
		},
	}
}
