// Package watcher notices edits to the launcher's configuration files.
//
// The serve command uses it with --watch to restart the orchestrator when
// the modules file or the log options file changes. Bursts of writes are
// debounced into a single callback.
package watcher
