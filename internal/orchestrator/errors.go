package orchestrator

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start when the orchestrator is running.
var ErrAlreadyRunning = errors.New("orchestrator is already running")

// Start stages reported by StartError.
const (
	StageResolve  = "resolve"
	StagePorts    = "ports"
	StageServices = "services"
	StageModules  = "modules"
	StageProxy    = "proxy"
)

// StartError is returned when Start fails. Err joins the failure with any
// error hit while rolling back.
type StartError struct {
	Stage string
	Err   error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start failed at %s stage: %v", e.Stage, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}
