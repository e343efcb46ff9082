package script

import (
	"errors"
	"fmt"
)

var (
	// ErrHostClosed is returned when running code on a closed host.
	ErrHostClosed = errors.New("script host is closed")

	// ErrTimeout is returned when a script or callback exceeds its deadline.
	ErrTimeout = errors.New("script execution timeout")

	// ErrNotFunction is returned by Call for globals that are not functions.
	ErrNotFunction = errors.New("not a function")
)

// ScriptError reports a failure while running Lua code.
type ScriptError struct {
	// Source names the chunk, file or callback that failed.
	Source string

	// Err is the Go error raised through Lua, or the Lua error itself.
	Err error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Source, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
