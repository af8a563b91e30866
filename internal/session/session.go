package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/shellsession-go/internal/config"
	"github.com/wagiedev/shellsession-go/internal/errors"
	"github.com/wagiedev/shellsession-go/internal/script"
	"github.com/wagiedev/shellsession-go/internal/shell"
	"github.com/wagiedev/shellsession-go/internal/stream"
	"github.com/wagiedev/shellsession-go/internal/subprocess"
)

const (
	stateOpen int32 = iota
	stateClosing
	stateClosed
)

// releaseTimeout bounds the wait for pumps and pool workers after the
// interpreter is gone.
const releaseTimeout = time.Second

// Session is one running interpreter and its command protocol.
//
// Commands are serialized: concurrent calls on one Session run one after
// another.
type Session struct {
	id   string
	log  *slog.Logger
	opts *config.Options
	inv  *shell.Invocation
	proc *subprocess.Process
	pool *pool

	mu    sync.Mutex // Serializes commands, Configure and Close
	state atomic.Int32
}

// Open starts an interpreter and returns a session bound to it.
//
// The interpreter is resolved from opts.ExecutablePath, the
// SHELLSESSION_EXECUTABLE environment variable, or the platform default.
// Open returns a LaunchError if it cannot be found or started, or if it
// exits within opts.StartupGrace.
func Open(ctx context.Context, opts *config.Options) (*Session, error) {
	opts = opts.WithDefaults()

	id := ulid.Make().String()
	log := opts.Logger.With("component", "session", "session_id", id)

	resolver := shell.NewResolver(&shell.Config{
		ExecutablePath: opts.ExecutablePath,
		Args:           opts.Args,
		Logger:         log,
	})

	inv, err := resolver.Resolve()
	if err != nil {
		return nil, &errors.LaunchError{Path: opts.ExecutablePath, Err: err}
	}

	proc := subprocess.New(&subprocess.Config{
		Invocation:       inv,
		Env:              opts.Env,
		Cwd:              opts.Cwd,
		MergeErrorStream: opts.MergeErrorStream,
		Charset:          opts.Charset,
		Logger:           log,
	})

	if err := proc.Start(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, &errors.LaunchError{Path: inv.Path, Err: err}
	}

	if err := proc.WaitStartup(ctx, opts.StartupGrace); err != nil {
		if killErr := proc.Kill(); killErr != nil {
			log.Debug("Failed to kill interpreter after startup failure", "error", killErr)
		}

		proc.Release(releaseTimeout)

		return nil, err
	}

	streams := 2
	if opts.MergeErrorStream {
		streams = 1
	}

	s := &Session{
		id:   id,
		log:  log,
		opts: opts,
		inv:  inv,
		proc: proc,
		pool: newPool(log, int64(streams+1)),
	}

	log.Info("Session opened",
		"pid", proc.Pid(),
		"dialect", inv.Dialect.Kind,
		"wait_pause", opts.WaitPause,
		"max_wait", opts.MaxWait,
	)

	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Pid returns the interpreter's process id.
func (s *Session) Pid() int {
	return s.proc.Pid()
}

// Dialect returns the interpreter dialect.
func (s *Session) Dialect() *shell.Dialect {
	return s.inv.Dialect
}

// Executable returns the resolved interpreter path.
func (s *Session) Executable() string {
	return s.inv.Path
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.state.Load() != stateOpen
}

// ExecuteCommand writes command to the interpreter and waits for its output.
//
// A command that prints nothing is reported as a timeout after MaxWait,
// because nothing marks its completion. Enable RemoteMode to make every
// command print a trailing marker line.
//
// The returned error is ErrSessionClosed after Close, or ctx.Err() when ctx
// ends first, in which case the partial result is returned as a timeout.
// Everything else is reported through the result.
func (s *Session) ExecuteCommand(ctx context.Context, command string) (CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Closed() {
		return CommandResult{}, errors.ErrSessionClosed
	}

	return s.execute(ctx, command, false)
}

// ExecuteCommandWith runs command and passes the result to handler.
// A panicking handler is recovered and logged.
func (s *Session) ExecuteCommandWith(ctx context.Context, command string, handler ResponseHandler) error {
	result, err := s.ExecuteCommand(ctx, command)
	if stderrors.Is(err, errors.ErrSessionClosed) {
		return err
	}

	s.respond(handler, result)

	return err
}

func (s *Session) respond(handler ResponseHandler, result CommandResult) {
	if handler == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Response handler panicked", "panic", r)
		}
	}()

	handler(result)
}

// ExecuteScript runs the script read from source with params appended to
// its invocation. The script is copied to a temporary file that is removed
// afterwards. Completion is detected with a sentinel line, so scripts may
// pause their output for any time up to MaxWait.
func (s *Session) ExecuteScript(ctx context.Context, source io.Reader, params ...string) (CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Closed() {
		return CommandResult{}, errors.ErrSessionClosed
	}

	materializer := script.NewMaterializer(s.log, s.inv.Dialect, s.opts.TempFolder)

	path, err := materializer.Materialize(source)
	if err != nil {
		s.log.Error("Failed to prepare script", "error", err)

		return errorResult("cannot prepare script: " + err.Error()), nil
	}

	defer materializer.Remove(path)

	command := s.inv.Dialect.ScriptInvocation(s.inv.Path, path, strings.Join(params, " "))

	return s.execute(ctx, command, true)
}

// ExecuteScriptFile runs the script stored at path. See ExecuteScript.
func (s *Session) ExecuteScriptFile(ctx context.Context, path string, params ...string) (CommandResult, error) {
	if s.Closed() {
		return CommandResult{}, errors.ErrSessionClosed
	}

	//nolint:gosec // G304: running caller-chosen scripts is the purpose of this method
	f, err := os.Open(path)
	if err != nil {
		scriptErr := &errors.ScriptError{Op: "open", Path: path, Err: err}
		s.log.Error("Failed to open script", "error", scriptErr)

		return errorResult(scriptErr.Error()), nil
	}
	defer f.Close()

	return s.ExecuteScript(ctx, f, params...)
}

// Configure changes runtime tunables: waitPause, maxWait, tempFolder and
// remoteMode. Invalid values are logged and the previous value is kept.
// Keys that only apply when opening a session are logged and ignored.
func (s *Session) Configure(overrides map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := make(map[string]string, len(overrides))

	for key, value := range overrides {
		if !config.IsRuntimeKey(key) {
			s.log.Warn("Configuration key only applies when opening a session", "key", key)

			continue
		}

		applied[key] = value
	}

	s.opts.ApplyOverrides(applied, s.log)

	s.log.Debug("Session configured",
		"wait_pause", s.opts.WaitPause,
		"max_wait", s.opts.MaxWait,
		"temp_folder", s.opts.TempFolder,
		"remote_mode", s.opts.RemoteMode,
	)
}

// execute runs one command cycle. The caller holds s.mu.
func (s *Session) execute(ctx context.Context, command string, scriptMode bool) (CommandResult, error) {
	opts := s.opts
	s.discardStale()
	s.setPartialDelay(opts.WaitPause)

	taskOpts := stream.TaskOptions{
		WaitPause:      opts.WaitPause,
		MaxWait:        opts.MaxWait,
		LineTerminator: s.inv.Dialect.LineTerminator,
	}

	outOpts := taskOpts
	if scriptMode {
		outOpts.Sentinel = shell.ScriptSentinel
	}

	outTask := stream.NewTask(s.log, "stdout", s.proc.Stdout(), outOpts)

	var errTask *stream.Task
	if stderr := s.proc.Stderr(); stderr != nil {
		errTask = stream.NewTask(s.log, "stderr", stderr, taskOpts)
	}

	defer func() {
		outTask.Close()

		if errTask != nil {
			errTask.Close()
		}
	}()

	outFuture, err := submit(s.pool, ctx, outTask.Run)
	if err != nil {
		return s.submitFailed(ctx, err)
	}

	var errFuture *future[stream.Result]

	if errTask != nil {
		errFuture, err = submit(s.pool, ctx, errTask.Run)
		if err != nil {
			return s.submitFailed(ctx, err)
		}
	}

	if opts.RemoteMode {
		command = s.inv.Dialect.WithMarker(command)
	}

	start := time.Now()
	s.log.Debug("Executing command", "script_mode", scriptMode, "remote_mode", opts.RemoteMode)

	if err := s.proc.WriteLine(ctx, command); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return timeoutResult(""), ctxErr
		}

		s.log.Error("Failed to send command", "error", err)

		return errorResult("failed to send command: " + err.Error()), nil
	}

	timer := time.NewTimer(opts.MaxWait)
	defer timer.Stop()

	// The error stream only short-circuits interactive commands. Scripts
	// always run to their sentinel.
	var errDone <-chan struct{}
	if errFuture != nil && !scriptMode {
		errDone = errFuture.Done()
	}

	for {
		select {
		case <-outFuture.Done():
			return s.collect(start, outFuture.Result(), errTask, errFuture), nil

		case <-errDone:
			if res := errFuture.Result(); res.Outcome == stream.OutcomeCompleted && res.Output != "" {
				s.log.Debug("Command reported an error", "elapsed", time.Since(start), "lines", res.Lines)

				return errorResult(res.Output), nil
			}

			errDone = nil

		case <-timer.C:
			s.log.Warn("Command timed out", "elapsed", time.Since(start), "max_wait", opts.MaxWait)

			return timeoutResult(partialOutput(outTask.Output(), errTask)), nil

		case <-ctx.Done():
			s.log.Debug("Command cancelled", "elapsed", time.Since(start), "error", ctx.Err())

			return timeoutResult(partialOutput(outTask.Output(), errTask)), ctx.Err()
		}
	}
}

// collect builds the result once the stdout task has returned.
func (s *Session) collect(
	start time.Time,
	out stream.Result,
	errTask *stream.Task,
	errFuture *future[stream.Result],
) CommandResult {
	elapsed := time.Since(start)

	switch out.Outcome {
	case stream.OutcomeCompleted:
		if errOut := s.errorOutput(errTask, errFuture); errOut != "" {
			s.log.Debug("Command reported an error", "elapsed", elapsed)

			return errorResult(errOut)
		}

		s.log.Debug("Command completed", "elapsed", elapsed, "lines", out.Lines)

		return successResult(out.Output)

	case stream.OutcomeExhausted:
		s.log.Error("Interpreter output ended", "exit_code", s.proc.ExitCode())

		output := out.Output
		if errTask != nil && errTask.HasOutput() {
			output = errTask.Output()
		}

		if output == "" {
			output = errors.ErrProcessExited.Error()
		}

		return errorResult(output)

	default:
		s.log.Warn("Command timed out", "elapsed", elapsed, "outcome", out.Outcome)

		return timeoutResult(partialOutput(out.Output, errTask))
	}
}

// errorOutput returns what the command wrote to the error stream. Lines that
// are buffered but not yet taken get a short settle window.
func (s *Session) errorOutput(errTask *stream.Task, errFuture *future[stream.Result]) string {
	if errTask == nil {
		return ""
	}

	if !errTask.HasOutput() && !s.proc.Stderr().Ready() {
		return ""
	}

	settle := 2 * (s.opts.WaitPause + stream.SettleDelay)

	select {
	case <-errFuture.Done():
	case <-time.After(settle):
	}

	return errTask.Output()
}

func (s *Session) submitFailed(ctx context.Context, err error) (CommandResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return timeoutResult(""), ctxErr
	}

	if stderrors.Is(err, errPoolShutdown) {
		return CommandResult{}, errors.ErrSessionClosed
	}

	return CommandResult{}, fmt.Errorf("submit reader task: %w", err)
}

// discardStale drops output left over from earlier commands, such as the
// late lines of a command that timed out.
func (s *Session) discardStale() {
	n := len(s.proc.Stdout().Drain())

	if stderr := s.proc.Stderr(); stderr != nil {
		n += len(stderr.Drain())
	}

	if n > 0 {
		s.log.Debug("Discarded stale output", "lines", n)
	}
}

// setPartialDelay makes output without a trailing newline readable after
// one poll interval of silence.
func (s *Session) setPartialDelay(d time.Duration) {
	s.proc.Stdout().SetPartialDelay(d)

	if stderr := s.proc.Stderr(); stderr != nil {
		stderr.SetPartialDelay(d)
	}
}

// partialOutput returns out, or the stderr text when out is empty.
func partialOutput(out string, errTask *stream.Task) string {
	if out == "" && errTask != nil {
		return errTask.Output()
	}

	return out
}
