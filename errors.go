package shellsession

import "github.com/wagiedev/shellsession-go/internal/errors"

// Re-export error types from internal package

// ShellSessionError is the base interface for all session errors.
type ShellSessionError = errors.ShellSessionError

// ExecutableNotFoundError indicates the interpreter binary was not found.
type ExecutableNotFoundError = errors.ExecutableNotFoundError

// LaunchError indicates the interpreter could not be started.
type LaunchError = errors.LaunchError

// ExecutionError carries the error-stream text of a failed command.
type ExecutionError = errors.ExecutionError

// ScriptError indicates a temporary script file could not be handled.
type ScriptError = errors.ScriptError

// Re-export sentinel errors from internal package.
var (
	// ErrSessionClosed indicates a command was issued after Close.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrCommandTimeout is returned by CommandResult.Err for timed out commands.
	ErrCommandTimeout = errors.ErrCommandTimeout

	// ErrProcessExited indicates the interpreter process is no longer running.
	ErrProcessExited = errors.ErrProcessExited
)
