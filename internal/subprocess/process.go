package subprocess

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/wagiedev/shellsession-go/internal/errors"
	"github.com/wagiedev/shellsession-go/internal/shell"
	"github.com/wagiedev/shellsession-go/internal/stream"
)

// Config holds what is needed to start an interpreter.
type Config struct {
	Invocation *shell.Invocation

	// Env provides additional environment variables for the process.
	Env map[string]string

	// Cwd sets the working directory. Empty means the current directory.
	Cwd string

	// MergeErrorStream points the child's stderr at its stdout pipe.
	MergeErrorStream bool

	// Charset names the console encoding. Empty means UTF-8.
	Charset string

	// Logger is an optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Process is a running interpreter.
type Process struct {
	log     *slog.Logger
	cfg     *Config
	cmd     *exec.Cmd
	encoder *encoding.Encoder

	stdin      io.WriteCloser
	stdoutPipe io.ReadCloser
	stderrPipe io.ReadCloser

	stdout *stream.Buffer
	stderr *stream.Buffer
	pumps  sync.WaitGroup

	exited      chan struct{}
	exitCode    int
	exitErr     error
	releaseOnce sync.Once

	mu          sync.Mutex // Protects stdin writes
	stdinClosed bool
}

// New creates an unstarted process for cfg.
func New(cfg *Config) *Process {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Process{
		log:      log.With("component", "process"),
		cfg:      cfg,
		exited:   make(chan struct{}),
		exitCode: -1,
	}
}

// Start spawns the interpreter and starts pumping its output.
//
// The child is not bound to ctx: it lives until Kill or until it exits on
// its own. ctx only guards the setup steps.
func (p *Process) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	inv := p.cfg.Invocation

	enc, err := LookupCharset(p.cfg.Charset)
	if err != nil {
		return fmt.Errorf("lookup charset: %w", err)
	}

	cwd := p.cfg.Cwd
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	p.log.Debug("Starting interpreter", "path", inv.Path, "args", inv.Args, "cwd", cwd)

	//nolint:gosec // G204: launching a configured interpreter is the purpose of this package
	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Dir = cwd
	cmd.Env = shell.BuildEnvironment(p.cfg.Env)
	cmd.SysProcAttr = sysProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		p.log.Error("Failed to create stdin pipe", "error", err)

		return fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.log.Error("Failed to create stdout pipe", "error", err)

		return fmt.Errorf("stdout pipe: %w", err)
	}

	var stderr io.ReadCloser

	if p.cfg.MergeErrorStream {
		cmd.Stderr = cmd.Stdout
	} else {
		stderr, err = cmd.StderrPipe()
		if err != nil {
			p.log.Error("Failed to create stderr pipe", "error", err)

			return fmt.Errorf("stderr pipe: %w", err)
		}
	}

	if err := cmd.Start(); err != nil {
		p.log.Error("Failed to start interpreter", "error", err)

		return fmt.Errorf("start process: %w", err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdoutPipe = stdout
	p.stderrPipe = stderr

	if enc != nil {
		p.encoder = enc.NewEncoder()
	}

	p.stdout = stream.NewBuffer()
	p.pumps.Go(func() {
		stream.Pump(decode(stdout, enc), p.stdout, p.log.With("stream", "stdout"))
	})

	if stderr != nil {
		p.stderr = stream.NewBuffer()
		p.pumps.Go(func() {
			stream.Pump(decode(stderr, enc), p.stderr, p.log.With("stream", "stderr"))
		})
	}

	// os.Process.Wait reaps the child without closing the pipes, so the pumps
	// can still read whatever the process wrote before exiting.
	go p.reap()

	p.log.Info("Interpreter started", "pid", cmd.Process.Pid)

	return nil
}

func (p *Process) reap() {
	defer close(p.exited)

	state, err := p.cmd.Process.Wait()
	if err != nil {
		p.exitErr = err
		p.log.Debug("Wait for interpreter failed", "error", err)

		return
	}

	p.exitCode = state.ExitCode()
	p.log.Debug("Interpreter exited", "exit_code", p.exitCode)
}

func decode(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return r
	}

	return transform.NewReader(r, enc.NewDecoder())
}

// Pid returns the child's process id, or 0 before Start.
func (p *Process) Pid() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

// Stdout returns the buffered standard output stream.
func (p *Process) Stdout() *stream.Buffer {
	return p.stdout
}

// Stderr returns the buffered error stream, or nil when it is merged into
// Stdout.
func (p *Process) Stderr() *stream.Buffer {
	return p.stderr
}

// Exited is closed once the child has exited and been reaped.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// ExitCode returns the child's exit code, or -1 while it is running or if
// it was killed by a signal.
func (p *Process) ExitCode() int {
	select {
	case <-p.exited:
		return p.exitCode
	default:
		return -1
	}
}

// Running reports whether the child has been started and not yet exited.
func (p *Process) Running() bool {
	if p.cmd == nil {
		return false
	}

	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// WaitStartup watches the child for grace. It returns a LaunchError if the
// child exits within that window.
func (p *Process) WaitStartup(ctx context.Context, grace time.Duration) error {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.exited:
		err := &errors.LaunchError{
			Path:     p.cfg.Invocation.Path,
			ExitCode: p.exitCode,
			Err:      errors.ErrProcessExited,
		}
		if p.exitErr != nil {
			err.Err = stderrors.Join(errors.ErrProcessExited, p.exitErr)
		}

		p.log.Error("Interpreter exited during startup", "exit_code", p.exitCode)

		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		p.log.Debug("Interpreter survived startup grace", "grace", grace)

		return nil
	}
}

// WriteLine writes line plus the dialect's line terminator to stdin.
//
// Safe for concurrent use. If ctx is cancelled during a blocked write, stdin
// is closed to unblock it and later calls return ErrStdinClosed.
func (p *Process) WriteLine(ctx context.Context, line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stdin == nil {
		return errors.ErrProcessNotStarted
	}

	if p.stdinClosed {
		return errors.ErrStdinClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	text := line + p.cfg.Invocation.Dialect.LineTerminator
	if p.encoder != nil {
		encoded, err := p.encoder.String(text)
		if err != nil {
			p.log.Warn("Command contains characters the console charset cannot encode", "error", err)

			return fmt.Errorf("encode command: %w", err)
		}

		text = encoded
	}

	p.log.Debug("Writing to interpreter", "data_len", len(text))

	done := make(chan error, 1)

	go func() {
		_, err := io.WriteString(p.stdin, text)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			p.log.Error("Failed to write to interpreter", "error", err)

			return fmt.Errorf("write to stdin: %w", err)
		}

		return nil

	case <-ctx.Done():
		p.log.Debug("Context cancelled during write, closing stdin")

		_ = p.stdin.Close()
		p.stdinClosed = true

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			p.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

// Kill terminates the child and everything it spawned. It is a no-op once
// the child has exited.
func (p *Process) Kill() error {
	if !p.Running() {
		return nil
	}

	pid := p.cmd.Process.Pid
	p.log.Debug("Killing interpreter process tree", "pid", pid)

	var errs []error

	if err := killTree(p.cmd.Process); err != nil {
		p.log.Warn("Failed to kill process tree", "pid", pid, "error", err)

		errs = append(errs, err)
	}

	if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		errs = append(errs, fmt.Errorf("kill interpreter (pid %d): %w", pid, err))
	}

	return stderrors.Join(errs...)
}

// Release closes every pipe and waits up to timeout for the output pumps to
// stop. It should follow the child's exit or Kill. Safe to call more than
// once.
func (p *Process) Release(timeout time.Duration) {
	p.releaseOnce.Do(func() {
		p.mu.Lock()
		if p.stdin != nil && !p.stdinClosed {
			if err := p.stdin.Close(); err != nil {
				p.log.Debug("Failed to close stdin", "error", err)
			}
		}

		p.stdinClosed = true
		p.mu.Unlock()

		for name, pipe := range map[string]io.Closer{"stdout": p.stdoutPipe, "stderr": p.stderrPipe} {
			if pipe == nil {
				continue
			}

			if err := pipe.Close(); err != nil {
				p.log.Debug("Failed to close pipe", "stream", name, "error", err)
			}
		}

		done := make(chan struct{})

		go func() {
			p.pumps.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.log.Debug("Output pumps stopped")
		case <-time.After(timeout):
			p.log.Warn("Output pumps still running after release", "timeout", timeout)
		}
	})
}
