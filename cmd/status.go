package cmd

import (
	"github.com/spf13/cobra"

	"launcher/internal/formatting"
	"launcher/internal/statusapi"
)

var (
	statusOutput string
	statusQuiet  bool
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running launcher",
		Long: `Queries the status API of a running launcher and prints the
orchestrator state and the state of every service.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}

	cmd.Flags().StringVar(&statusAddress, "address", "", "Status API address (default from config.yaml)")
	cmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().BoolVarP(&statusQuiet, "quiet", "q", false, "Hide the progress spinner")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	client, err := newStatusClient()
	if err != nil {
		return err
	}

	var status statusapi.StatusResponse
	err = withSpinner(statusQuiet || format != formatting.FormatTable, "Querying launcher...", "Failed to reach launcher", func() error {
		var err error
		status, err = client.Status(commandContext(cmd.Context()))
		return err
	})
	if err != nil {
		return err
	}

	return formatting.NewPrinter(cmd.OutOrStdout(), format).Status(status)
}

func init() {
	rootCmd.AddCommand(newStatusCmd())
}
