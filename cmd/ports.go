package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"launcher/internal/config"
	"launcher/internal/formatting"
	"launcher/internal/modules"
	"launcher/internal/ports"
)

var portsOutput string

func newPortsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "Show the ports modules will be given",
		Long: `Reads the modules file and prints the port every module gets.
Modules are numbered upwards from basePort in name order, so the result is
the same on every start. No running launcher is needed.`,
		Args: cobra.NoArgs,
		RunE: runPorts,
	}

	cmd.Flags().StringVarP(&portsOutput, "output", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func runPorts(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(portsOutput)
	if err != nil {
		return err
	}

	path := configPath
	if path == "" {
		if path, err = config.GetDefaultConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg = cfg.Resolve(wd)

	decls, err := modules.NewFileSet(cfg.ModulesFile).Declarations(commandContext(cmd.Context()))
	if err != nil {
		return err
	}

	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}
	alloc, err := ports.Allocate(names, cfg.BasePort)
	if err != nil {
		return err
	}

	return formatting.NewPrinter(cmd.OutOrStdout(), format).Ports(formatting.PortRows(alloc, decls))
}

func init() {
	rootCmd.AddCommand(newPortsCmd())
}
