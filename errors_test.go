package shellsession

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLaunchError_Formatting(t *testing.T) {
	notFound := &ExecutableNotFoundError{SearchedPaths: []string{"powershell.exe", "pwsh.exe"}}
	err := &LaunchError{Path: "powershell.exe", Err: notFound}

	require.Contains(t, err.Error(), "failed to launch powershell.exe")
	require.Contains(t, err.Error(), "pwsh.exe")

	got, ok := errors.AsType[*ExecutableNotFoundError](err)
	require.True(t, ok)
	require.Equal(t, notFound, got)
}

func TestExecutionError_Formatting(t *testing.T) {
	err := &ExecutionError{Output: "Get-Foo : The term 'Get-Foo' is not recognized"}

	require.Contains(t, err.Error(), "command reported an error")
	require.Contains(t, err.Error(), "Get-Foo")
}

func TestScriptError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("disk full")
	err := &ScriptError{Op: "write", Path: "/tmp/s.ps1", Err: inner}

	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "/tmp/s.ps1")
}

// TestErrorTypes_ImplementInterface checks every exported error type
// satisfies ShellSessionError.
func TestErrorTypes_ImplementInterface(t *testing.T) {
	errs := []error{
		&ExecutableNotFoundError{},
		&LaunchError{Err: ErrProcessExited},
		&ExecutionError{},
		&ScriptError{Op: "create", Err: ErrProcessExited},
	}

	for _, err := range errs {
		sessionErr, ok := errors.AsType[ShellSessionError](err)
		require.True(t, ok, "%T", err)
		require.True(t, sessionErr.IsShellSessionError())
	}
}

func TestSentinelErrors(t *testing.T) {
	wrapped := fmt.Errorf("execute: %w", ErrSessionClosed)

	require.ErrorIs(t, wrapped, ErrSessionClosed)
	require.NotErrorIs(t, wrapped, ErrCommandTimeout)
	require.NotEqual(t, ErrSessionClosed.Error(), ErrProcessExited.Error())
}
