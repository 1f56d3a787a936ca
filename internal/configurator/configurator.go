package configurator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"launcher/pkg/logging"
)

// ErrSealed is returned when the configuration is modified or sealed after
// it has already been sealed.
var ErrSealed = errors.New("configuration is sealed")

// Entry is the broker configuration contributed by one module.
type Entry struct {
	Module     string                 `json:"module" yaml:"module"`
	Publishes  []string               `json:"publishes,omitempty" yaml:"publishes,omitempty"`
	Subscribes []string               `json:"subscribes,omitempty" yaml:"subscribes,omitempty"`
	Settings   map[string]interface{} `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Aggregate is the combined configuration pushed to the broker on seal.
type Aggregate struct {
	Modules []Entry `json:"modules" yaml:"modules"`
}

// Target receives the sealed aggregate.
type Target interface {
	ApplyConfiguration(ctx context.Context, aggregate Aggregate) error
}

// Configurator collects per-module broker configuration while the
// launcher starts and pushes it to the broker exactly once.
type Configurator struct {
	target Target

	mu      sync.Mutex
	entries []Entry
	names   map[string]struct{}
	sealed  bool
}

// New creates an open configurator that pushes to target when sealed.
func New(target Target) *Configurator {
	return &Configurator{
		target: target,
		names:  make(map[string]struct{}),
	}
}

// AddModule adds a module's entry. Entries keep insertion order.
func (c *Configurator) AddModule(entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return fmt.Errorf("add module %q: %w", entry.Module, ErrSealed)
	}
	if entry.Module == "" {
		return fmt.Errorf("add module: empty module name")
	}
	if _, exists := c.names[entry.Module]; exists {
		return fmt.Errorf("add module %q: already configured", entry.Module)
	}

	c.names[entry.Module] = struct{}{}
	c.entries = append(c.entries, copyEntry(entry))
	return nil
}

// Seal freezes the configuration and applies it to the target. The
// configuration stays sealed even if applying it fails.
func (c *Configurator) Seal(ctx context.Context) error {
	c.mu.Lock()
	if c.sealed {
		c.mu.Unlock()
		return ErrSealed
	}
	c.sealed = true
	aggregate := c.aggregateLocked()
	c.mu.Unlock()

	logging.Debug("Configurator", "Sealed configuration with %d modules", len(aggregate.Modules))

	if c.target == nil {
		return nil
	}
	if err := c.target.ApplyConfiguration(ctx, aggregate); err != nil {
		return fmt.Errorf("apply configuration: %w", err)
	}
	return nil
}

// Sealed reports whether Seal has been called.
func (c *Configurator) Sealed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sealed
}

// Aggregate returns a copy of the current configuration.
func (c *Configurator) Aggregate() Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggregateLocked()
}

// Snapshot renders the current configuration as YAML.
func (c *Configurator) Snapshot() ([]byte, error) {
	return yaml.Marshal(c.Aggregate())
}

func (c *Configurator) aggregateLocked() Aggregate {
	modules := make([]Entry, len(c.entries))
	for i, entry := range c.entries {
		modules[i] = copyEntry(entry)
	}
	return Aggregate{Modules: modules}
}

func copyEntry(e Entry) Entry {
	out := Entry{Module: e.Module}
	if e.Publishes != nil {
		out.Publishes = append([]string(nil), e.Publishes...)
	}
	if e.Subscribes != nil {
		out.Subscribes = append([]string(nil), e.Subscribes...)
	}
	if e.Settings != nil {
		out.Settings = make(map[string]interface{}, len(e.Settings))
		for k, v := range e.Settings {
			out.Settings[k] = v
		}
	}
	return out
}
