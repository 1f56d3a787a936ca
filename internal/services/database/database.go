package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"launcher/internal/services"
	"launcher/internal/supervisor"
)

const (
	// ServiceName is the name of the database service and its data directory.
	ServiceName = "mongo"

	// DefaultExecutable is the bundled mongod.
	DefaultExecutable = "./internals/mongo/bin/mongod"

	DefaultHost = "localhost"
	DefaultPort = 27017
)

// Credentials authenticate a database connection.
type Credentials struct {
	User     string
	Password string
}

// URIOptions are the parts of a connection URI. Zero values fall back to
// DefaultHost and DefaultPort.
type URIOptions struct {
	Credentials *Credentials
	Host        string
	Port        int
	DB          string
}

// BuildURI builds a mongodb connection URI:
//
//	mongodb://[user:password@]host:port[/db]
func BuildURI(opts URIOptions) string {
	var b strings.Builder
	b.WriteString("mongodb://")

	if opts.Credentials != nil {
		b.WriteString(opts.Credentials.User)
		b.WriteByte(':')
		b.WriteString(opts.Credentials.Password)
		b.WriteByte('@')
	}

	host := opts.Host
	if host == "" {
		host = DefaultHost
	}
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	b.WriteString(host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(port))

	if opts.DB != "" {
		b.WriteByte('/')
		b.WriteString(opts.DB)
	}

	return b.String()
}

// Options configures the database adapter.
type Options struct {
	Executable string
	DataDir    string
	Port       int
	LogStream  io.Writer
}

// Database runs mongod.
type Database struct {
	*services.ProcessService

	port int
}

// New creates a stopped database.
func New(opts Options, sup supervisor.Supervisor, timeouts services.Timeouts) *Database {
	if opts.Executable == "" {
		opts.Executable = DefaultExecutable
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	dbPath := services.DataDir(opts.DataDir, ServiceName)

	return &Database{
		port: opts.Port,
		ProcessService: services.NewProcessService(services.Definition{
			Name:       ServiceName,
			Type:       services.TypeDatabase,
			Executable: opts.Executable,
			Arguments:  []string{"--dbpath", dbPath, "--port", strconv.Itoa(opts.Port)},
			LogStream:  opts.LogStream,
			PreStart: func(ctx context.Context) error {
				if err := os.MkdirAll(dbPath, 0o700); err != nil {
					return fmt.Errorf("create database dir: %w", err)
				}
				return nil
			},
		}, sup, timeouts),
	}
}

// Port returns the port mongod listens on.
func (d *Database) Port() int {
	return d.port
}

// DatabaseURI returns the connection URI of the named database on this
// server.
func (d *Database) DatabaseURI(name string) string {
	return BuildURI(URIOptions{Port: d.port, DB: name})
}
