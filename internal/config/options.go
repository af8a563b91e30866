// Package config provides configuration types for shell sessions.
package config

import (
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultWaitPause is the readiness poll interval used by stream readers
	// and by the command wait loop.
	DefaultWaitPause = 5 * time.Millisecond

	// DefaultMaxWait bounds a single command and the close sequence.
	DefaultMaxWait = 10 * time.Second

	// DefaultStartupGrace is how long Open watches a fresh interpreter for an
	// immediate exit before declaring it alive.
	DefaultStartupGrace = 100 * time.Millisecond
)

// Options configures a shell session.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// ExecutablePath is the explicit path (or bare name) of the interpreter.
	// If empty, the platform default is used.
	ExecutablePath string

	// Args replaces the dialect's default invocation arguments when non-nil.
	Args []string

	// Env provides additional environment variables for the interpreter process.
	Env map[string]string

	// Cwd sets the working directory for the interpreter process.
	Cwd string

	// WaitPause is the readiness poll interval. Zero means DefaultWaitPause.
	WaitPause time.Duration

	// MaxWait bounds each command and the close sequence. Zero means DefaultMaxWait.
	MaxWait time.Duration

	// StartupGrace is how long Open waits to confirm the interpreter stays up.
	// Zero means DefaultStartupGrace.
	StartupGrace time.Duration

	// TempFolder is where script files are materialized.
	// If empty, os.TempDir() is used.
	TempFolder string

	// RemoteMode appends a trailing marker write to every command so remote
	// execution contexts still flush their output.
	RemoteMode bool

	// MergeErrorStream sends the interpreter's stderr into stdout. Only one
	// reader task runs per command when set, and results are never marked
	// as errors.
	MergeErrorStream bool

	// Charset names the console encoding (e.g. "cp850", "windows-1252").
	// Empty or "utf-8" means no transcoding.
	Charset string
}

// WithDefaults returns a copy of o with zero-valued tunables replaced by defaults.
func (o *Options) WithDefaults() *Options {
	out := &Options{}
	if o != nil {
		*out = *o
	}

	if out.Logger == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if out.WaitPause <= 0 {
		out.WaitPause = DefaultWaitPause
	}

	if out.MaxWait <= 0 {
		out.MaxWait = DefaultMaxWait
	}

	if out.StartupGrace <= 0 {
		out.StartupGrace = DefaultStartupGrace
	}

	return out
}
