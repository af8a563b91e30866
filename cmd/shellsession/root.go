package main

import (
	stderrors "errors"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	shellsession "github.com/wagiedev/shellsession-go"
	"github.com/wagiedev/shellsession-go/internal/config"
)

// resultError reports a command that ran but did not succeed.
type resultError struct {
	timeout bool
}

func (e *resultError) Error() string {
	if e.timeout {
		return "command timed out"
	}

	return "command reported an error"
}

// exitCode maps err to the process exit status: 2 for a timeout, 1 for
// everything else.
func exitCode(err error) int {
	if re, ok := stderrors.AsType[*resultError](err); ok && re.timeout {
		return 2
	}

	return 1
}

type rootFlags struct {
	configPath string
	executable string
	cwd        string
	charset    string
	tempFolder string
	waitPause  time.Duration
	maxWait    time.Duration
	remote     bool
	merge      bool
	verbose    bool
}

func (f *rootFlags) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&f.configPath, "config", "", "TOML or YAML settings file")
	flags.StringVar(&f.executable, "executable", "", "interpreter path or name (default: platform shell)")
	flags.StringVar(&f.cwd, "cwd", "", "working directory of the interpreter")
	flags.StringVar(&f.charset, "charset", "", "console encoding of the interpreter (e.g. cp850)")
	flags.StringVar(&f.tempFolder, "temp-folder", "", "directory for materialized scripts")
	flags.DurationVar(&f.waitPause, "wait-pause", config.DefaultWaitPause, "readiness poll interval")
	flags.DurationVar(&f.maxWait, "max-wait", config.DefaultMaxWait, "maximum time per command")
	flags.BoolVar(&f.remote, "remote", false, "append an end marker to every command")
	flags.BoolVar(&f.merge, "merge-stderr", false, "read stderr through stdout")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "log debug output to stderr")
}

// settings merges the config file, SHELLSESSION_* variables and explicitly
// set flags, later sources winning.
func (f *rootFlags) settings(cmd *cobra.Command) (map[string]string, error) {
	file := map[string]string{}

	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}

		file = loaded
	}

	fromFlags := map[string]string{}
	changed := cmd.Flags().Changed

	if changed("executable") {
		fromFlags[config.KeyExecutable] = f.executable
	}

	if changed("charset") {
		fromFlags[config.KeyCharset] = f.charset
	}

	if changed("temp-folder") {
		fromFlags[config.KeyTempFolder] = f.tempFolder
	}

	if changed("wait-pause") {
		fromFlags[config.KeyWaitPause] = f.waitPause.String()
	}

	if changed("max-wait") {
		fromFlags[config.KeyMaxWait] = f.maxWait.String()
	}

	if changed("remote") {
		fromFlags[config.KeyRemoteMode] = boolString(f.remote)
	}

	if changed("merge-stderr") {
		fromFlags[config.KeyMergeErrorStream] = boolString(f.merge)
	}

	return config.Merge(file, config.LoadEnv(config.EnvPrefix), fromFlags), nil
}

func (f *rootFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// options resolves the session options for cmd.
func (f *rootFlags) options(cmd *cobra.Command) ([]shellsession.Option, error) {
	settings, err := f.settings(cmd)
	if err != nil {
		return nil, err
	}

	opts := []shellsession.Option{
		shellsession.WithLogger(f.logger(cmd.ErrOrStderr())),
		shellsession.WithConfig(settings),
	}

	if f.cwd != "" {
		opts = append(opts, shellsession.WithCwd(f.cwd))
	}

	return opts, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}

	return "false"
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "shellsession",
		Short:         "Drive a persistent shell interpreter",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags.bind(cmd)
	cmd.AddCommand(newExecCmd(flags))
	cmd.AddCommand(newScriptCmd(flags))
	cmd.AddCommand(newMCPCmd(flags))

	return cmd
}
