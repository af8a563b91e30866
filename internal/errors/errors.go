package errors

import (
	"errors"
	"fmt"
)

// ShellSessionError is the base interface for all session errors.
type ShellSessionError interface {
	error
	IsShellSessionError() bool
}

// Compile-time verification that all error types implement ShellSessionError.
var (
	_ ShellSessionError = (*ExecutableNotFoundError)(nil)
	_ ShellSessionError = (*LaunchError)(nil)
	_ ShellSessionError = (*ExecutionError)(nil)
	_ ShellSessionError = (*ScriptError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrSessionClosed indicates a command was issued after Close.
	ErrSessionClosed = errors.New("session closed: open a new session with Open()")

	// ErrCommandTimeout indicates a command did not finish within the configured max wait.
	ErrCommandTimeout = errors.New("command timeout")

	// ErrProcessExited indicates the interpreter process is no longer running.
	ErrProcessExited = errors.New("interpreter process exited")

	// ErrProcessNotStarted indicates a write before the interpreter was started.
	ErrProcessNotStarted = errors.New("interpreter process not started")

	// ErrStdinClosed indicates the interpreter's input was closed, either by
	// Close or by a cancelled write.
	ErrStdinClosed = errors.New("interpreter stdin closed")
)

// ExecutableNotFoundError indicates the interpreter binary was not found.
type ExecutableNotFoundError struct {
	SearchedPaths []string
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("interpreter not found in: %v", e.SearchedPaths)
}

// IsShellSessionError implements ShellSessionError.
func (e *ExecutableNotFoundError) IsShellSessionError() bool { return true }

// LaunchError indicates the interpreter could not be started or exited
// during the startup grace period.
type LaunchError struct {
	Path     string
	ExitCode int
	Err      error
}

func (e *LaunchError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("failed to launch %s (exit %d): %v", e.Path, e.ExitCode, e.Err)
	}

	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsShellSessionError implements ShellSessionError.
func (e *LaunchError) IsShellSessionError() bool { return true }

// ExecutionError carries the error-stream text the interpreter reported
// for a command.
type ExecutionError struct {
	Output string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command reported an error: %s", e.Output)
}

// IsShellSessionError implements ShellSessionError.
func (e *ExecutionError) IsShellSessionError() bool { return true }

// ScriptError indicates a temporary script file could not be created,
// read, or removed.
type ScriptError struct {
	Op   string
	Path string
	Err  error
}

func (e *ScriptError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("script %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("script %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// IsShellSessionError implements ShellSessionError.
func (e *ScriptError) IsShellSessionError() bool { return true }
