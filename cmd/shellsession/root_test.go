package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/shellsession-go/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func requireShell(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func TestSettings_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shellsession.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[session]
waitPause = 7
maxWait = 3000
charset = "cp850"
`), 0o600))

	t.Setenv(config.EnvPrefix+"MAX_WAIT", "4000")

	flags := &rootFlags{}
	cmd := &cobra.Command{Use: "test"}
	flags.bind(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--wait-pause", "20ms"}))

	settings, err := flags.settings(cmd)
	require.NoError(t, err)

	require.Equal(t, "20ms", settings[config.KeyWaitPause])
	require.Equal(t, "4000", settings[config.KeyMaxWait])
	require.Equal(t, "cp850", settings[config.KeyCharset])
	require.NotContains(t, settings, config.KeyRemoteMode)
}

func TestSettings_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("waitPause: [unclosed"), 0o600))

	flags := &rootFlags{configPath: path}

	_, err := flags.settings(newRootCmd())

	var parseErr *config.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 2, exitCode(&resultError{timeout: true}))
	require.Equal(t, 1, exitCode(&resultError{}))
	require.Equal(t, 1, exitCode(os.ErrNotExist))
}

func TestExec_PrintsOutput(t *testing.T) {
	requireShell(t)

	stdout, _, err := runCLI(t, "--executable", "/bin/sh", "exec", "echo", "hello-cli")
	require.NoError(t, err)
	require.Equal(t, "hello-cli\n", stdout)
}

func TestExec_ErrorOutputGoesToStderr(t *testing.T) {
	requireShell(t)

	stdout, stderr, err := runCLI(t, "--executable", "/bin/sh", "exec", "echo oops 1>&2")
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
	require.Empty(t, stdout)
	require.Contains(t, stderr, "oops")
}

func TestExec_TimeoutExitCode(t *testing.T) {
	requireShell(t)

	_, _, err := runCLI(t, "--executable", "/bin/sh", "--max-wait", "150ms", "exec", "sleep 1")
	require.Error(t, err)
	require.Equal(t, 2, exitCode(err))
}

func TestScript_RunsFileWithParams(t *testing.T) {
	requireShell(t)

	path := filepath.Join(t.TempDir(), "greet.sh")
	require.NoError(t, os.WriteFile(path, []byte("echo \"hi $1\"\n"), 0o600))

	stdout, _, err := runCLI(t, "--executable", "/bin/sh", "script", path, "there")
	require.NoError(t, err)
	require.Equal(t, "hi there\n", stdout)
}

func TestScript_MissingFile(t *testing.T) {
	requireShell(t)

	_, stderr, err := runCLI(t, "--executable", "/bin/sh", "script", filepath.Join(t.TempDir(), "absent.sh"))
	require.Error(t, err)
	require.Contains(t, stderr, "absent.sh")
}
