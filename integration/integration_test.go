//go:build integration

package integration

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	shellsession "github.com/wagiedev/shellsession-go"
)

// findPowerShell returns the PowerShell executable on PATH, skipping the
// test when none is installed.
func findPowerShell(t *testing.T) string {
	t.Helper()

	candidates := []string{"pwsh"}
	if runtime.GOOS == "windows" {
		candidates = append(candidates, "powershell")
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	t.Skip("PowerShell not installed")

	return ""
}

// openPowerShell opens a session on the installed PowerShell and closes it
// when the test ends.
func openPowerShell(t *testing.T, opts ...shellsession.Option) *shellsession.Session {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts = append([]shellsession.Option{
		shellsession.WithExecutable(findPowerShell(t)),
		shellsession.WithMaxWait(20 * time.Second),
		// PowerShell takes a while to load.
		shellsession.WithStartupGrace(500 * time.Millisecond),
	}, opts...)

	s, err := shellsession.Open(ctx, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}
