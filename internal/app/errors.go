package app

import "fmt"

// InitError wraps a failure during application startup with the
// stage that failed.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("app: init %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
