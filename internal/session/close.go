package session

import (
	"context"
	"fmt"
	"time"
)

// Close shuts the interpreter down.
//
// It writes the dialect's exit command and waits up to MaxWait for the
// process to exit. If it does not, the whole process tree is killed. Pipes
// and workers are released either way. Close waits for a running command to
// finish first. It is safe to call more than once and always returns nil;
// failures are logged.
func (s *Session) Close() error {
	if !s.state.CompareAndSwap(stateOpen, stateClosing) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	maxWait := s.opts.MaxWait

	s.log.Debug("Closing session", "pid", s.proc.Pid())

	exitFuture, err := submit(s.pool, context.Background(), s.exitInterpreter)
	if err != nil {
		s.log.Warn("Failed to submit exit task", "error", err)
	} else {
		timer := time.NewTimer(maxWait)

		select {
		case <-exitFuture.Done():
			if err := exitFuture.Result(); err != nil {
				s.log.Debug("Graceful exit failed", "error", err)
			}
		case <-timer.C:
			s.log.Warn("Session blocked on exit, killing interpreter", "max_wait", maxWait)
		}

		timer.Stop()
	}

	if s.proc.Running() {
		if err := s.proc.Kill(); err != nil {
			s.log.Error("Failed to kill interpreter", "error", err)
		}

		select {
		case <-s.proc.Exited():
		case <-time.After(releaseTimeout):
			s.log.Error("Interpreter still running after kill", "pid", s.proc.Pid())
		}
	}

	s.pool.shutdown(releaseTimeout)
	s.proc.Release(releaseTimeout)
	s.state.Store(stateClosed)

	s.log.Info("Session closed", "elapsed", time.Since(start), "exit_code", s.proc.ExitCode())

	return nil
}

// exitInterpreter asks the interpreter to exit and waits until it does.
func (s *Session) exitInterpreter(ctx context.Context) error {
	if err := s.proc.WriteLine(ctx, s.inv.Dialect.ExitCommand); err != nil {
		return fmt.Errorf("write exit command: %w", err)
	}

	select {
	case <-s.proc.Exited():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
