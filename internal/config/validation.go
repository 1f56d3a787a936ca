package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration for values the launcher cannot run with.
func (c LauncherConfig) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.ModulesFile) == "" {
		errs.Add("modulesFile", "is required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs.Add("dataDir", "is required")
	}
	if c.BasePort < 1 || c.BasePort > 65535 {
		errs.Add("basePort", "must be between 1 and 65535", c.BasePort)
	}
	if c.Timeouts.Start < 0 {
		errs.Add("timeouts.start", "must not be negative", c.Timeouts.Start)
	}
	if c.Timeouts.Stop < 0 {
		errs.Add("timeouts.stop", "must not be negative", c.Timeouts.Stop)
	}
	if c.Supervisor.GracePeriod < 0 {
		errs.Add("supervisor.gracePeriod", "must not be negative", c.Supervisor.GracePeriod)
	}

	services := []struct {
		field string
		cfg   ServiceConfig
	}{
		{"broker", c.Broker},
		{"proxy", c.Proxy},
		{"database", c.Database},
	}
	for _, svc := range services {
		if svc.cfg.Port < 0 || svc.cfg.Port > 65535 {
			errs.Add(svc.field+".port", "must be between 0 and 65535", svc.cfg.Port)
		}
	}

	if c.Status.Enabled && strings.TrimSpace(c.Status.Address) == "" {
		errs.Add("status.address", "is required when the status API is enabled")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
