package session

import (
	"github.com/wagiedev/shellsession-go/internal/errors"
)

// CommandResult is the outcome of one command or script.
type CommandResult struct {
	output    string
	isError   bool
	isTimeout bool
}

// ResponseHandler receives the result of a command run with
// ExecuteCommandWith.
type ResponseHandler func(CommandResult)

func successResult(output string) CommandResult {
	return CommandResult{output: output}
}

func errorResult(output string) CommandResult {
	return CommandResult{output: output, isError: true}
}

func timeoutResult(output string) CommandResult {
	return CommandResult{output: output, isTimeout: true}
}

// Output returns the command's output lines joined with the interpreter's
// line terminator. For errors it holds the error-stream text.
func (r CommandResult) Output() string {
	return r.output
}

// IsError reports whether the interpreter wrote to its error stream.
func (r CommandResult) IsError() bool {
	return r.isError
}

// IsTimeout reports whether the command did not finish within MaxWait.
func (r CommandResult) IsTimeout() bool {
	return r.isTimeout
}

// Err converts the result into an error: ErrCommandTimeout for timeouts, an
// ExecutionError for error results, nil otherwise.
func (r CommandResult) Err() error {
	switch {
	case r.isTimeout:
		return errors.ErrCommandTimeout
	case r.isError:
		return &errors.ExecutionError{Output: r.output}
	default:
		return nil
	}
}

// String returns the output.
func (r CommandResult) String() string {
	return r.output
}
