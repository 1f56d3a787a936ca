package logs

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"launcher/pkg/logging"
)

// Options are the ambient log settings handed to every module.
type Options struct {
	Level     string         `yaml:"level" json:"level"`
	Directory string         `yaml:"directory" json:"directory"`
	Format    logging.Format `yaml:"format" json:"format"`
}

// DefaultOptions returns the options used when no log options file exists.
func DefaultOptions() Options {
	return Options{
		Level:     "info",
		Directory: "logs",
		Format:    logging.FormatText,
	}
}

// LoadOptions reads the options from path. A missing file yields the
// defaults; fields absent from the file keep their default value.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return Options{}, fmt.Errorf("read log options %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parse log options %s: %w", path, err)
	}

	if _, ok := logging.ParseLevel(opts.Level); !ok {
		return Options{}, fmt.Errorf("log options %s: unknown level %q", path, opts.Level)
	}
	if opts.Format != logging.FormatText && opts.Format != logging.FormatJSON {
		return Options{}, fmt.Errorf("log options %s: unknown format %q", path, opts.Format)
	}

	return opts, nil
}
