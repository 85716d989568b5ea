package runner

import (
	"errors"
	"fmt"
	"os/exec"
)

var (
	// ErrTimedOut marks a command that exceeded its wall-clock budget and was terminated.
	ErrTimedOut = errors.New("command timed out")
	// ErrCancelled marks a command terminated because its context was cancelled.
	ErrCancelled = errors.New("command cancelled")
	// ErrEmptyCommand is returned when a command has no program to launch.
	ErrEmptyCommand = errors.New("empty command")
)

// LaunchError reports that an executable could not be located or started.
// It is the only error Run returns; exit codes and timeouts live on Result.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	if e.Program == "" {
		return fmt.Sprintf("launch command: %v", e.Err)
	}
	return fmt.Sprintf("launch %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the executable is missing from PATH.
func (e *LaunchError) NotFound() bool {
	return errors.Is(e.Err, exec.ErrNotFound)
}

// ExitError describes a command that ran but exited with a non-zero status.
type ExitError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Stderr)
}

// IsLaunchFailure reports whether err (or anything it wraps) is a LaunchError.
func IsLaunchFailure(err error) bool {
	var launchErr *LaunchError
	return errors.As(err, &launchErr)
}
