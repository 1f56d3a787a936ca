package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"

	"launcher/internal/config"
	"launcher/internal/statusapi"
)

// statusAddress is the --address flag shared by the client commands.
var statusAddress string

// newStatusClient creates a client for the running launcher. Without
// --address the status address from config.yaml is used.
func newStatusClient() (*statusapi.Client, error) {
	if statusAddress != "" {
		return statusapi.NewClient(statusAddress), nil
	}

	path := configPath
	if path == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if !cfg.Status.Enabled {
		return nil, fmt.Errorf("the status API is disabled in %s", path)
	}
	return statusapi.NewClient(cfg.Status.Address), nil
}

// withSpinner runs fn while showing message, unless quiet.
func withSpinner(quiet bool, message, failure string, fn func() error) error {
	if quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	if err := fn(); err != nil {
		s.FinalMSG = text.FgRed.Sprint(failure) + "\n"
		return err
	}
	return nil
}

// commandContext returns the command context or a background context.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
