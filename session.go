package shellsession

import (
	"context"

	"github.com/wagiedev/shellsession-go/internal/session"
	"github.com/wagiedev/shellsession-go/internal/shell"
)

// Session is a running interpreter. Create one with Open.
type Session = session.Session

// CommandResult is the outcome of one command or script.
type CommandResult = session.CommandResult

// ResponseHandler receives results from Session.ExecuteCommandWith.
type ResponseHandler = session.ResponseHandler

// Dialect describes interpreter syntax: echo, exit, script invocation and
// line endings.
type Dialect = shell.Dialect

// ScriptSentinel is the line every script prints last.
const ScriptSentinel = shell.ScriptSentinel

// Open starts an interpreter and returns a session bound to it.
//
// Returns a LaunchError if the interpreter cannot be found or started, or
// if it exits during the startup grace period.
func Open(ctx context.Context, opts ...Option) (*Session, error) {
	return session.Open(ctx, applyOptions(opts))
}

// ExecuteSingleCommand opens a session, runs command, and closes the session.
func ExecuteSingleCommand(ctx context.Context, command string, opts ...Option) (CommandResult, error) {
	var result CommandResult

	err := WithSession(ctx, func(s *Session) error {
		var err error

		result, err = s.ExecuteCommand(ctx, command)

		return err
	}, opts...)

	return result, err
}
