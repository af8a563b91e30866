package shell

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/shellsession-go/internal/errors"
)

// TestResolver_NotFound tests that an invalid explicit path returns ExecutableNotFoundError.
func TestResolver_NotFound(t *testing.T) {
	resolver := NewResolver(&Config{
		ExecutablePath: "/nonexistent/path/to/pwsh",
	})

	_, err := resolver.Resolve()

	require.Error(t, err)
	require.IsType(t, &errors.ExecutableNotFoundError{}, err)
}

// TestResolver_ExplicitPath tests discovery with an explicit path.
func TestResolver_ExplicitPath(t *testing.T) {
	fake := filepath.Join(t.TempDir(), "pwsh")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))

	inv, err := NewResolver(&Config{ExecutablePath: fake}).Resolve()

	require.NoError(t, err)
	require.Equal(t, fake, inv.Path)
	require.Same(t, PowerShell, inv.Dialect)
	require.Equal(t, PowerShell.DefaultArgs, inv.Args)
}

func TestResolver_ArgsOverride(t *testing.T) {
	fake := filepath.Join(t.TempDir(), "bash")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))

	inv, err := NewResolver(&Config{ExecutablePath: fake, Args: []string{"--norc", "-s"}}).Resolve()

	require.NoError(t, err)
	require.Equal(t, []string{"--norc", "-s"}, inv.Args)
	require.Same(t, POSIX, inv.Dialect)
}

func TestResolver_EnvironmentOverride(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Test requires a POSIX shell")
	}

	t.Setenv(ExecutableEnvVar, "/bin/sh")

	inv, err := NewResolver(nil).Resolve()

	require.NoError(t, err)
	require.Equal(t, "/bin/sh", inv.Path)
}

func TestResolver_PlatformDefault(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Test requires a POSIX shell")
	}

	t.Setenv(ExecutableEnvVar, "")

	inv, err := NewResolver(nil).Resolve()

	require.NoError(t, err)
	require.Same(t, POSIX, inv.Dialect)
	require.Equal(t, []string{"-s"}, inv.Args)
}

func TestResolver_PlatformDefaultsPerOS(t *testing.T) {
	r := NewResolver(nil)

	r.goos = "windows"
	require.Equal(t, []string{"powershell.exe", "pwsh.exe"}, r.platformDefaults())

	r.goos = "linux"
	require.Contains(t, r.platformDefaults(), "/bin/sh")
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		path string
		want *Dialect
	}{
		{`C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`, PowerShell},
		{"/usr/bin/pwsh", PowerShell},
		{"PWSH.EXE", PowerShell},
		{"/bin/sh", POSIX},
		{"/usr/local/bin/bash", POSIX},
		{"zsh", POSIX},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Same(t, tt.want, DialectFor(tt.path))
		})
	}
}

func TestDialect_EchoCommand(t *testing.T) {
	require.Equal(t, "Write-Output 'it''s'", PowerShell.EchoCommand("it's"))
	require.Equal(t, `printf '%s\n' 'it'\''s'`, POSIX.EchoCommand("it's"))
	require.Equal(t, "printf '%s\\n' '"+ScriptSentinel+"'", POSIX.EchoCommand(ScriptSentinel))
}

func TestDialect_ScriptInvocation(t *testing.T) {
	t.Run("powershell", func(t *testing.T) {
		got := PowerShell.ScriptInvocation("pwsh", `C:\Temp\a b.ps1`, "-Name x")
		require.Equal(t, `& 'C:\Temp\a b.ps1' -Name x`, got)
	})

	t.Run("posix", func(t *testing.T) {
		got := POSIX.ScriptInvocation("/bin/sh", "/tmp/s.sh", "")
		require.Equal(t, "'/bin/sh' '/tmp/s.sh' </dev/null", got)
	})

	t.Run("posix with params", func(t *testing.T) {
		got := POSIX.ScriptInvocation("/bin/sh", "/tmp/s.sh", "  one two ")
		require.Equal(t, "'/bin/sh' '/tmp/s.sh' one two </dev/null", got)
	})
}

func TestDialect_WithMarker(t *testing.T) {
	require.Equal(t, "Get-Date\r\nWrite-Output ''", PowerShell.WithMarker("Get-Date"))
	require.Equal(t, "ls # note\nprintf '%s\\n' ''", POSIX.WithMarker("ls # note"))
}

func TestDialect_Constants(t *testing.T) {
	require.Equal(t, "\r\n", PowerShell.LineTerminator)
	require.Equal(t, "\n", POSIX.LineTerminator)
	require.Equal(t, ".ps1", PowerShell.ScriptExtension)
	require.Equal(t, ".sh", POSIX.ScriptExtension)
	require.Equal(t, "exit", POSIX.ExitCommand)
}

func TestBuildEnvironment(t *testing.T) {
	env := BuildEnvironment(map[string]string{"B_VAR": "2", "A_VAR": "1"})

	require.GreaterOrEqual(t, len(env), 2)
	require.Equal(t, "A_VAR=1", env[len(env)-2])
	require.Equal(t, "B_VAR=2", env[len(env)-1])
}
