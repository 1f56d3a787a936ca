package broker

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"

	"launcher/internal/configurator"
	"launcher/internal/services"
	"launcher/internal/supervisor"
	"launcher/pkg/logging"
)

const (
	// ServiceName is the name of the broker service and its data directory.
	ServiceName = "mhub"

	// DefaultExecutable is the bundled mhub server.
	DefaultExecutable = "./internals/mhub/bin/mhub-server"

	// DefaultPort is the websocket port the broker listens on.
	DefaultPort = 13900

	// DefaultReadyTimeout bounds how long the configuration push waits
	// for a freshly spawned broker to accept connections.
	DefaultReadyTimeout = 30 * time.Second

	configFile = "mhub.config.json"
)

// Options configures the broker adapter.
type Options struct {
	Executable string
	DataDir    string
	Port       int

	// ProtectedPassword is handed to modules that publish on the
	// protected node.
	ProtectedPassword string

	// ConfigurationPassword is the launcher secret; only the launcher
	// publishes module configuration.
	ConfigurationPassword string

	// ReadyTimeout defaults to the start timeout, or DefaultReadyTimeout
	// when that is unset.
	ReadyTimeout time.Duration

	LogStream io.Writer
}

// Broker runs the mhub message broker.
type Broker struct {
	*services.ProcessService

	port                  int
	configurationPassword string
	readyTimeout          time.Duration
}

// New creates a stopped broker.
func New(opts Options, sup supervisor.Supervisor, timeouts services.Timeouts) *Broker {
	if opts.Executable == "" {
		opts.Executable = DefaultExecutable
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = timeouts.Start
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}

	configPath := filepath.Join(services.DataDir(opts.DataDir, ServiceName), configFile)

	b := &Broker{
		port:                  opts.Port,
		configurationPassword: opts.ConfigurationPassword,
		readyTimeout:          opts.ReadyTimeout,
	}
	b.ProcessService = services.NewProcessService(services.Definition{
		Name:       ServiceName,
		Type:       services.TypeBroker,
		Executable: opts.Executable,
		Arguments:  []string{"-c", configPath},
		LogStream:  opts.LogStream,
		PreStart: func(ctx context.Context) error {
			return writeConfig(configPath, opts.Port, opts.ProtectedPassword, opts.ConfigurationPassword)
		},
	}, sup, timeouts)

	return b
}

// URL returns the websocket address modules connect to.
func (b *Broker) URL() string {
	return fmt.Sprintf("ws://localhost:%d", b.port)
}

// Port returns the websocket port.
func (b *Broker) Port() int {
	return b.port
}

// ApplyConfiguration publishes the sealed module configuration on the
// configuration node. The broker process may still be binding its port, so
// the connection is retried until the ready timeout.
func (b *Broker) ApplyConfiguration(ctx context.Context, aggregate configurator.Aggregate) error {
	client, err := b.dialReady(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logging.Debug("Broker", "Closing configuration connection: %v", cerr)
		}
	}()

	if err := client.Login(ctx, UserConfiguration, b.configurationPassword); err != nil {
		return fmt.Errorf("login as %s: %w", UserConfiguration, err)
	}
	if err := client.Publish(ctx, NodeConfiguration, TopicModules, aggregate); err != nil {
		return fmt.Errorf("publish %s: %w", TopicModules, err)
	}

	logging.Info("Broker", "Published configuration for %d modules", len(aggregate.Modules))
	return nil
}

// dialReady dials the broker with exponential backoff. Login and publish
// are not retried.
func (b *Broker) dialReady(ctx context.Context) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, b.readyTimeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second

	var lastErr error
	client, err := backoff.Retry(ctx, func() (*Client, error) {
		c, err := Dial(ctx, b.URL())
		if err != nil {
			lastErr = err
		}
		return c, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(b.readyTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			logging.Debug("Broker", "Broker not ready, retrying in %s: %v", next, err)
		}),
	)
	if err == nil {
		return client, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("broker not ready after %s: %w", b.readyTimeout, lastErr)
	}
	return nil, err
}
