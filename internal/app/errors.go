// Package app wires the ingestion engine's components together and
// defines the one error type allowed to reach main as fatal.
package app

import "fmt"

// StartupError wraps a fatal failure to initialize the database pool,
// bootstrap the SOL/USD price, or establish the upstream subscription.
// It is the only error type the process entry point treats as fatal.
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

func newStartupError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StartupError{Stage: stage, Err: err}
}
