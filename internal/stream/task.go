package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
)

// SettleDelay is the fixed extra wait, on top of WaitPause, before the idle
// heuristic declares an interactive command finished.
const SettleDelay = 5 * time.Millisecond

// Outcome describes how a Task stopped.
type Outcome int

const (
	// OutcomeCompleted means the idle heuristic fired or the sentinel was seen.
	OutcomeCompleted Outcome = iota
	// OutcomeTimedOut means MaxWait elapsed first.
	OutcomeTimedOut
	// OutcomeCancelled means Close was called or the context ended.
	OutcomeCancelled
	// OutcomeExhausted means the stream ended (the process exited).
	OutcomeExhausted
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// TaskOptions tunes a Task.
type TaskOptions struct {
	// WaitPause is the readiness poll interval.
	WaitPause time.Duration

	// MaxWait bounds the whole task.
	MaxWait time.Duration

	// Sentinel switches the task into script mode when non-empty.
	Sentinel string

	// LineTerminator joins output lines. Defaults to "\n".
	LineTerminator string
}

// Result is what a Task produced.
type Result struct {
	Output  string
	Outcome Outcome
	Lines   int
}

// Task drains one stream for one command. It is single-use.
type Task struct {
	name   string
	src    Source
	opts   TaskOptions
	log    *slog.Logger
	closed atomic.Bool

	mu    sync.Mutex
	lines []string
}

// NewTask creates a task named name (e.g. "stdout") reading from src.
func NewTask(log *slog.Logger, name string, src Source, opts TaskOptions) *Task {
	if opts.LineTerminator == "" {
		opts.LineTerminator = "\n"
	}

	return &Task{
		name: name,
		src:  src,
		opts: opts,
		log:  log.With("stream", name),
	}
}

// Name returns the stream name given to NewTask.
func (t *Task) Name() string {
	return t.name
}

// Close asks the task to stop at its next checkpoint. Safe to call more
// than once and from any goroutine.
func (t *Task) Close() {
	t.closed.Store(true)
}

// Output returns the text accumulated so far, with trailing whitespace
// removed. Safe to call while Run is in progress.
func (t *Task) Output() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return joinLines(t.lines, t.opts.LineTerminator)
}

// HasOutput reports whether at least one line was taken.
func (t *Task) HasOutput() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.lines) > 0
}

// Run drains the source until the command is judged finished, MaxWait
// elapses, the stream ends, or the task is cancelled.
func (t *Task) Run(ctx context.Context) Result {
	outcome := t.run(ctx)

	t.mu.Lock()
	result := Result{
		Output:  joinLines(t.lines, t.opts.LineTerminator),
		Outcome: outcome,
		Lines:   len(t.lines),
	}
	t.mu.Unlock()

	t.log.Debug("Reader task finished", "outcome", outcome, "lines", result.Lines)

	return result
}

func (t *Task) run(ctx context.Context) Outcome {
	deadline := time.Now().Add(t.opts.MaxWait)
	scriptMode := t.opts.Sentinel != ""

	// Start phase: wait for the first readable line.
	for !t.src.Ready() {
		if t.stopped(ctx) {
			return OutcomeCancelled
		}

		if t.src.Exhausted() {
			return OutcomeExhausted
		}

		if !time.Now().Before(deadline) {
			return OutcomeTimedOut
		}

		if !t.pause(ctx, t.opts.WaitPause) {
			return OutcomeCancelled
		}
	}

	// Drain phase.
	for {
		if t.stopped(ctx) {
			return OutcomeCancelled
		}

		line, ok := t.src.Next()
		if !ok {
			if !scriptMode {
				return OutcomeCompleted
			}

			if t.src.Exhausted() {
				return OutcomeExhausted
			}

			if !time.Now().Before(deadline) {
				return OutcomeTimedOut
			}

			if !t.pause(ctx, t.opts.WaitPause) {
				return OutcomeCancelled
			}

			continue
		}

		if scriptMode {
			// Output without a final newline puts the sentinel at the end of
			// the script's last line.
			if prefix, found := strings.CutSuffix(line, t.opts.Sentinel); found {
				if prefix != "" {
					t.mu.Lock()
					t.lines = append(t.lines, prefix)
					t.mu.Unlock()
				}

				return OutcomeCompleted
			}
		}

		t.mu.Lock()
		t.lines = append(t.lines, line)
		t.mu.Unlock()

		if scriptMode {
			if !time.Now().Before(deadline) {
				return OutcomeTimedOut
			}

			continue
		}

		// Idle heuristic: one more poll interval plus a settle delay without
		// new data means the command is done.
		if !t.pause(ctx, t.opts.WaitPause+SettleDelay) {
			return OutcomeCancelled
		}

		if !t.src.Ready() {
			return OutcomeCompleted
		}
	}
}

func (t *Task) stopped(ctx context.Context) bool {
	return t.closed.Load() || ctx.Err() != nil
}

// pause sleeps for d, returning false if ctx ends first.
func (t *Task) pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return !t.closed.Load()
	}
}

// joinLines joins lines with terminator and strips trailing whitespace from
// the result only.
func joinLines(lines []string, terminator string) string {
	return strings.TrimRightFunc(strings.Join(lines, terminator), unicode.IsSpace)
}
