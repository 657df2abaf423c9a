package session

import (
	"errors"
	"fmt"
)

// ErrNoCommand indicates a session config with no command to run.
var ErrNoCommand = errors.New("session config has no command")

// FactoryError indicates the factory failed to produce a usable config.
// The registry is left unchanged when it occurs.
type FactoryError struct {
	Root string
	Err  error
}

// Error implements the error interface.
func (e *FactoryError) Error() string {
	return fmt.Sprintf("configure session for %s: %v", e.Root, e.Err)
}

// Unwrap returns the underlying error.
func (e *FactoryError) Unwrap() error {
	return e.Err
}

// StartError indicates the transport failed to start a session.
type StartError struct {
	Root string
	Err  error
}

// Error implements the error interface.
func (e *StartError) Error() string {
	return fmt.Sprintf("start session for %s: %v", e.Root, e.Err)
}

// Unwrap returns the underlying error.
func (e *StartError) Unwrap() error {
	return e.Err
}
