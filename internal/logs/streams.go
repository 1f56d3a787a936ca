package logs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// MainStream is the log stream of the launcher itself.
const MainStream = "main"

// Streams opens per-service log files below Dir and remembers them so they
// can be closed together.
type Streams struct {
	Dir string

	mu     sync.Mutex
	opened map[string]*os.File
}

// NewStreams creates a stream set writing to dir.
func NewStreams(dir string) *Streams {
	return &Streams{Dir: dir}
}

// Create returns the append-only log stream <Dir>/<name>.log. Asking for
// the same name twice returns the same stream.
func (s *Streams) Create(name string) (io.WriteCloser, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid log stream name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.opened[name]; ok {
		return f, nil
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(s.Dir, name+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log stream %s: %w", name, err)
	}

	if s.opened == nil {
		s.opened = make(map[string]*os.File)
	}
	s.opened[name] = f
	return f, nil
}

// Close closes every stream opened through Create.
func (s *Streams) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, f := range s.opened {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log stream %s: %w", name, err))
		}
	}
	s.opened = nil
	return errors.Join(errs...)
}
