package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"launcher/internal/logs"
	"launcher/internal/services/broker"
	"launcher/internal/services/database"
	"launcher/internal/services/proxy"
	"launcher/pkg/logging"
)

// reservedNames are taken by the shared services and the main log stream.
// A module using one would share their log file and data directory.
var reservedNames = map[string]string{
	broker.ServiceName:   "the broker",
	proxy.ServiceName:    "the proxy",
	database.ServiceName: "the database",
	logs.MainStream:      "the main log stream",
}

// BrokerDeclaration lists the topics a module uses.
type BrokerDeclaration struct {
	Publishes  []string `yaml:"publishes,omitempty"`
	Subscribes []string `yaml:"subscribes,omitempty"`
}

// Declaration is one entry of the modules file.
type Declaration struct {
	Name       string                 `yaml:"name"`
	Executable string                 `yaml:"executable"`
	Args       []string               `yaml:"args,omitempty"`
	Env        map[string]string      `yaml:"env,omitempty"`
	WorkDir    string                 `yaml:"workDir,omitempty"`
	Route      string                 `yaml:"route,omitempty"`
	Database   string                 `yaml:"database,omitempty"`
	Broker     BrokerDeclaration      `yaml:"broker,omitempty"`
	Settings   map[string]interface{} `yaml:"settings,omitempty"`
}

// File is the layout of the modules file.
type File struct {
	Modules []Declaration `yaml:"modules"`
}

// FileSet loads modules from a YAML declaration file.
type FileSet struct {
	Path string
}

// NewFileSet creates a set reading path.
func NewFileSet(path string) *FileSet {
	return &FileSet{Path: path}
}

// LoadModules reads the file and returns one ProcessModule per
// declaration, in file order. Duplicate names are not rejected here.
func (s *FileSet) LoadModules(ctx context.Context) ([]Module, error) {
	decls, err := s.Declarations(ctx)
	if err != nil {
		return nil, err
	}

	modules := make([]Module, 0, len(decls))
	for _, decl := range decls {
		modules = append(modules, NewProcessModule(decl))
	}

	logging.Debug("Modules", "Loaded %d modules from %s", len(modules), s.Path)
	return modules, nil
}

// Declarations reads and validates the file. Relative executables and
// working directories are resolved against the file's directory.
func (s *FileSet) Declarations(ctx context.Context) ([]Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read modules file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse modules file %s: %w", s.Path, err)
	}

	baseDir := filepath.Dir(s.Path)
	decls := make([]Declaration, 0, len(file.Modules))
	for i, decl := range file.Modules {
		if decl.Name == "" {
			return nil, fmt.Errorf("modules file %s: module %d has no name", s.Path, i)
		}
		if owner, ok := reservedNames[decl.Name]; ok {
			return nil, fmt.Errorf("modules file %s: module name %s is reserved for %s", s.Path, decl.Name, owner)
		}
		if decl.Executable == "" {
			return nil, fmt.Errorf("modules file %s: module %s has no executable", s.Path, decl.Name)
		}
		decl.Executable = resolvePath(baseDir, decl.Executable)
		if decl.WorkDir != "" {
			decl.WorkDir = resolvePath(baseDir, decl.WorkDir)
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Static is a fixed module set.
type Static []Module

// LoadModules returns the modules.
func (s Static) LoadModules(ctx context.Context) ([]Module, error) {
	return append([]Module(nil), s...), nil
}
