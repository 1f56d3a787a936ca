package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"launcher/internal/app"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveSilent discards console output; log files are still written.
var serveSilent bool

// serveWatch restarts everything when the modules file changes.
var serveWatch bool

// serveCmd starts the launcher in the foreground.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the broker, database, modules and proxy",
	Long: `Starts every service in order and keeps them running until interrupted.

Start order:
  1. mhub (broker) and mongo (database) in parallel; module
     configuration is published to the broker
  2. every module declared in the modules file, in parallel
  3. caddy (proxy), with one route per module that declares one

If any step fails everything already started is stopped again and the
command exits with code 3. With --watch it instead waits for the modules
file to change and tries again.

Signals:
  SIGINT, SIGTERM  stop everything and exit
  SIGHUP           restart everything

Configuration:
  config.yaml is read from --config-path, or ~/.config/launcher. Every
  setting has a default, so the file is optional.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveSilent, serveWatch, configPath)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&serveSilent, "silent", false, "Suppress console output (log files are still written)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Restart when the modules file or log options change")
}
