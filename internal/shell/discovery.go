package shell

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/wagiedev/shellsession-go/internal/errors"
)

// ExecutableEnvVar overrides the platform default interpreter.
const ExecutableEnvVar = "SHELLSESSION_EXECUTABLE"

// Config holds configuration for interpreter discovery.
type Config struct {
	// ExecutablePath is an explicit path or bare command name.
	// If empty, discovery falls back to the environment and platform default.
	ExecutablePath string

	// Args replaces the dialect's default arguments when non-nil.
	Args []string

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Invocation is a fully resolved interpreter command line.
type Invocation struct {
	Path    string
	Args    []string
	Dialect *Dialect
}

// Resolver locates the interpreter binary and builds its invocation.
type Resolver struct {
	cfg  *Config
	log  *slog.Logger
	goos string
}

// NewResolver creates a resolver with the given configuration.
func NewResolver(cfg *Config) *Resolver {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Resolver{
		cfg:  cfg,
		log:  log,
		goos: runtime.GOOS,
	}
}

// Resolve locates the interpreter and returns its invocation.
// Returns ExecutableNotFoundError if no candidate exists.
func (r *Resolver) Resolve() (*Invocation, error) {
	r.log.Debug("Resolving interpreter")

	path, err := r.find()
	if err != nil {
		r.log.Error("Failed to find interpreter", "error", err)

		return nil, err
	}

	dialect := DialectFor(path)

	args := r.cfg.Args
	if args == nil {
		args = append([]string(nil), dialect.DefaultArgs...)
	}

	r.log.Debug("Resolved interpreter", "path", path, "dialect", dialect.Kind, "args", args)

	return &Invocation{Path: path, Args: args, Dialect: dialect}, nil
}

func (r *Resolver) find() (string, error) {
	// If explicit path provided, use it and only it
	if r.cfg.ExecutablePath != "" {
		r.log.Debug("Using explicit interpreter", "path", r.cfg.ExecutablePath)

		return r.lookup(r.cfg.ExecutablePath)
	}

	if env := os.Getenv(ExecutableEnvVar); env != "" {
		r.log.Debug("Using interpreter from environment", "env", ExecutableEnvVar, "path", env)

		return r.lookup(env)
	}

	searched := make([]string, 0, 4)

	for _, candidate := range r.platformDefaults() {
		searched = append(searched, candidate)

		if path, err := exec.LookPath(candidate); err == nil {
			r.log.Debug("Found platform default interpreter", "path", path)

			return path, nil
		}
	}

	r.log.Warn("No interpreter found in any searched location", "searched_paths", searched)

	return "", &errors.ExecutableNotFoundError{SearchedPaths: searched}
}

// lookup accepts a path or a bare name resolved through PATH.
func (r *Resolver) lookup(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		if _, err := os.Stat(name); err != nil {
			return "", &errors.ExecutableNotFoundError{SearchedPaths: []string{name}}
		}

		return name, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", &errors.ExecutableNotFoundError{SearchedPaths: []string{"$PATH/" + name}}
	}

	return path, nil
}

func (r *Resolver) platformDefaults() []string {
	if r.goos == "windows" {
		return []string{"powershell.exe", "pwsh.exe"}
	}

	return []string{"sh", "/bin/sh", "/usr/bin/sh"}
}

// BuildEnvironment returns the interpreter's environment: the current
// process environment plus extra, in sorted key order.
func BuildEnvironment(extra map[string]string) []string {
	env := os.Environ()

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, extra[key]))
	}

	return env
}
