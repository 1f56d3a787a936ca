package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restartQuiet bool

func newRestartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart a running launcher",
		Long: `Asks a running launcher to stop every service and start them
again. The modules file is read anew, so added or removed modules take
effect.`,
		Args: cobra.NoArgs,
		RunE: runRestart,
	}

	cmd.Flags().StringVar(&statusAddress, "address", "", "Status API address (default from config.yaml)")
	cmd.Flags().BoolVarP(&restartQuiet, "quiet", "q", false, "Hide the progress spinner")
	return cmd
}

func runRestart(cmd *cobra.Command, args []string) error {
	client, err := newStatusClient()
	if err != nil {
		return err
	}

	err = withSpinner(restartQuiet, "Restarting launcher...", "Restart failed", func() error {
		return client.Restart(commandContext(cmd.Context()))
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Launcher restarted.")
	return nil
}

func init() {
	rootCmd.AddCommand(newRestartCmd())
}
