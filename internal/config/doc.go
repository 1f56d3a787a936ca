// Package config provides configuration management for the launcher.
//
// Configuration is read from config.yaml in a single directory. The
// default directory is ~/.config/launcher; commands accept --config-path
// to point elsewhere. Every setting has a default, so a missing file is
// not an error:
//
//	modulesFile: modules.yml
//	basePort: 2828
//	dataDir: ./data
//	logs:
//	  directory: ./logs
//	  optionsFile: logs.yaml
//	timeouts:
//	  start: 30s
//	  stop: 10s
//	supervisor:
//	  gracePeriod: 5s
//	broker:
//	  executable: ./internals/mhub/bin/mhub-server
//	  port: 13900
//	status:
//	  enabled: true
//	  address: localhost:2827
//
// Malformed or invalid files produce a ConfigurationError, whose
// DetailedError lists the file, the problem and suggestions.
package config
