package shellsession

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	logger := slog.Default()

	opts := applyOptions([]Option{
		WithLogger(logger),
		WithExecutable("pwsh"),
		WithArgs("-NoLogo", "-Command", "-"),
		WithEnv(map[string]string{"FOO": "bar"}),
		WithCwd("/tmp"),
		WithWaitPause(20 * time.Millisecond),
		WithMaxWait(time.Minute),
		WithStartupGrace(time.Second),
		WithTempFolder("/var/tmp"),
		WithRemoteMode(true),
		WithMergeErrorStream(true),
		WithCharset("cp850"),
	})

	require.Same(t, logger, opts.Logger)
	require.Equal(t, "pwsh", opts.ExecutablePath)
	require.Equal(t, []string{"-NoLogo", "-Command", "-"}, opts.Args)
	require.Equal(t, map[string]string{"FOO": "bar"}, opts.Env)
	require.Equal(t, "/tmp", opts.Cwd)
	require.Equal(t, 20*time.Millisecond, opts.WaitPause)
	require.Equal(t, time.Minute, opts.MaxWait)
	require.Equal(t, time.Second, opts.StartupGrace)
	require.Equal(t, "/var/tmp", opts.TempFolder)
	require.True(t, opts.RemoteMode)
	require.True(t, opts.MergeErrorStream)
	require.Equal(t, "cp850", opts.Charset)
}

func TestApplyOptions_LaterOptionWins(t *testing.T) {
	opts := applyOptions([]Option{
		WithMaxWait(time.Second),
		WithConfig(map[string]string{"maxWait": "250", "remoteMode": "true"}),
		WithRemoteMode(false),
	})

	require.Equal(t, 250*time.Millisecond, opts.MaxWait)
	require.False(t, opts.RemoteMode)
}

func TestWithConfig_InvalidValueKeepsPrevious(t *testing.T) {
	opts := applyOptions([]Option{
		WithWaitPause(7 * time.Millisecond),
		WithConfig(map[string]string{"waitPause": "soon"}),
	})

	require.Equal(t, 7*time.Millisecond, opts.WaitPause)
}

func TestDefaults(t *testing.T) {
	require.Equal(t, 5*time.Millisecond, DefaultWaitPause)
	require.Equal(t, 10*time.Second, DefaultMaxWait)
	require.NotEmpty(t, ScriptSentinel)
	require.NotNil(t, NopLogger())
}
