package shellsession

import (
	"log/slog"
	"time"

	"github.com/wagiedev/shellsession-go/internal/config"
)

// Options configures a session. Zero values select the defaults.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// Default tunables.
const (
	DefaultWaitPause    = config.DefaultWaitPause
	DefaultMaxWait      = config.DefaultMaxWait
	DefaultStartupGrace = config.DefaultStartupGrace
)

// applyOptions applies functional options to a new Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithExecutable sets the interpreter path or bare command name, e.g.
// "pwsh" or "/bin/bash". If not set, SHELLSESSION_EXECUTABLE or the
// platform default is used.
func WithExecutable(path string) Option {
	return func(o *Options) {
		o.ExecutablePath = path
	}
}

// WithArgs replaces the interpreter's default arguments. The interpreter
// must keep reading commands from stdin.
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = args
	}
}

// WithEnv provides additional environment variables for the interpreter.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithCwd sets the interpreter's working directory.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// ===== Timing =====

// WithWaitPause sets the output poll interval.
func WithWaitPause(d time.Duration) Option {
	return func(o *Options) {
		o.WaitPause = d
	}
}

// WithMaxWait bounds each command and the close sequence.
func WithMaxWait(d time.Duration) Option {
	return func(o *Options) {
		o.MaxWait = d
	}
}

// WithStartupGrace sets how long Open watches the interpreter for an
// immediate exit.
func WithStartupGrace(d time.Duration) Option {
	return func(o *Options) {
		o.StartupGrace = d
	}
}

// ===== Streams =====

// WithTempFolder sets the directory scripts are written to.
func WithTempFolder(dir string) Option {
	return func(o *Options) {
		o.TempFolder = dir
	}
}

// WithRemoteMode appends a trailing marker line to every command so that
// remote contexts flush their output and silent commands complete.
func WithRemoteMode(enabled bool) Option {
	return func(o *Options) {
		o.RemoteMode = enabled
	}
}

// WithMergeErrorStream sends the interpreter's stderr into stdout. Results
// are then never marked as errors.
func WithMergeErrorStream(enabled bool) Option {
	return func(o *Options) {
		o.MergeErrorStream = enabled
	}
}

// WithCharset sets the console encoding, e.g. "cp850" or "windows-1252".
func WithCharset(charset string) Option {
	return func(o *Options) {
		o.Charset = charset
	}
}

// WithConfig applies a key/value configuration map, as read by
// config files or the environment. Invalid values are ignored.
func WithConfig(values map[string]string) Option {
	return func(o *Options) {
		o.ApplyOverrides(values, o.Logger)
	}
}
