package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"launcher/internal/config"
	"launcher/internal/orchestrator"
	"launcher/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates config.yaml could not be loaded.
	ExitCodeConfig = 2
	// ExitCodeStartFailed indicates the orchestrator failed to start.
	ExitCodeStartFailed = 3
)

// configPath is the directory holding config.yaml, shared by all commands.
var configPath string

// rootCmd represents the base command for the launcher.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "launcher",
	Short: "Run the broker, proxy, database and modules as one unit",
	Long: `launcher starts the mhub message broker, the mongo database, every
module declared in the modules file and finally the caddy proxy that
routes to them. It stops them all again on shutdown.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	// Client commands only log warnings; serve replaces this setup.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logging.LevelWarn, os.Stderr)
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "launcher version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var configErr config.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeConfig
	}

	var startErr *orchestrator.StartError
	if errors.As(err, &startErr) {
		return ExitCodeStartFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Directory containing config.yaml (default ~/.config/launcher)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
