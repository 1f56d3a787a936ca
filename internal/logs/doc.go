// Package logs provides the ambient log options shared with modules and
// the per-service log files the launcher writes process output to.
package logs
