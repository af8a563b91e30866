package stream

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// readBufferSize is the size of a single read from the pipe.
	readBufferSize = 64 * 1024
	// maxLineSize is the longest line kept whole; longer output is split.
	maxLineSize = 1024 * 1024 // 1MB

	// DefaultPartialDelay is how long a line without a terminator must sit
	// unchanged before a Buffer hands it out.
	DefaultPartialDelay = 5 * time.Millisecond
)

// Source is the readiness-checked line stream a Task reads from.
type Source interface {
	// Ready reports whether a line can be taken without blocking.
	Ready() bool

	// Next takes the oldest line. ok is false when no line is ready.
	Next() (line string, ok bool)

	// Exhausted reports that the stream ended and every line was taken.
	Exhausted() bool
}

// Compile-time verification that Buffer implements Source.
var _ Source = (*Buffer)(nil)

// Buffer is an unbounded FIFO of lines fed by a Pump.
//
// Output that does not end in a newline is held as a pending partial line.
// Once no more bytes have arrived for the partial delay, the partial line is
// readable like any other line, so a prompt-less "printf x" is neither lost
// nor glued onto the next command's output.
// It is safe for concurrent use.
type Buffer struct {
	mu           sync.Mutex
	lines        []string
	pending      []byte
	pendingAt    time.Time
	partialDelay time.Duration
	closed       bool
	err          error
}

// NewBuffer creates an empty buffer using DefaultPartialDelay.
func NewBuffer() *Buffer {
	return &Buffer{partialDelay: DefaultPartialDelay}
}

// SetPartialDelay changes how long a partial line must be idle before it is
// readable. Non-positive values are ignored.
func (b *Buffer) SetPartialDelay(d time.Duration) {
	if d <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.partialDelay = d
}

// Push appends a line. Lines pushed after CloseWithError are dropped.
func (b *Buffer) Push(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.lines = append(b.lines, line)
}

// Write splits p into lines. Complete lines are queued at once; a trailing
// fragment is kept pending until more bytes, a newline, or the partial
// delay arrives. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return len(p), nil
	}

	data := p

	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			b.pending = append(b.pending, data...)

			break
		}

		b.pending = append(b.pending, data[:i]...)
		b.flushPendingLocked()
		data = data[i+1:]
	}

	for len(b.pending) > maxLineSize {
		b.lines = append(b.lines, string(b.pending[:maxLineSize]))
		b.pending = append(b.pending[:0], b.pending[maxLineSize:]...)
	}

	if len(b.pending) > 0 {
		b.pendingAt = time.Now()
	}

	return len(p), nil
}

// CloseWithError marks the end of the stream. A pending partial line is
// queued first. err may be nil for a clean EOF.
func (b *Buffer) CloseWithError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	if len(b.pending) > 0 {
		b.flushPendingLocked()
	}

	b.closed = true
	b.err = err
}

// Ready implements Source.
func (b *Buffer) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.lines) > 0 || b.partialReadyLocked()
}

// Next implements Source.
func (b *Buffer) Next() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) == 0 {
		if !b.partialReadyLocked() {
			return "", false
		}

		b.flushPendingLocked()
	}

	line := b.lines[0]
	b.lines[0] = ""
	b.lines = b.lines[1:]

	return line, true
}

// Exhausted implements Source.
func (b *Buffer) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed && len(b.lines) == 0 && len(b.pending) == 0
}

// Drain removes and returns every buffered line, including a pending
// partial line however recent.
func (b *Buffer) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) > 0 {
		b.flushPendingLocked()
	}

	lines := b.lines
	b.lines = nil

	return lines
}

// Err returns the error the stream ended with, if any.
func (b *Buffer) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.err
}

func (b *Buffer) partialReadyLocked() bool {
	return len(b.pending) > 0 && time.Since(b.pendingAt) >= b.partialDelay
}

// flushPendingLocked queues the pending bytes as one line, dropping a
// trailing carriage return.
func (b *Buffer) flushPendingLocked() {
	line := string(bytes.TrimSuffix(b.pending, []byte{'\r'}))
	b.lines = append(b.lines, line)
	b.pending = b.pending[:0]
}

// Pump copies r into b until r returns EOF or an error, then closes b. It
// blocks; run it in its own goroutine.
//
// Each read hands b whatever the pipe had, so output without a trailing
// newline reaches b without waiting for the next line.
//
// Pump relies on the process being killed (or its pipe closed) to unblock a
// pending Read.
func Pump(r io.Reader, b *Buffer, log *slog.Logger) {
	reader := bufio.NewReaderSize(r, readBufferSize)
	chunk := make([]byte, readBufferSize)

	total := 0

	var err error

	for {
		var n int

		n, err = reader.Read(chunk)
		if n > 0 {
			_, _ = b.Write(chunk[:n])
			total += n
		}

		if err != nil {
			break
		}
	}

	if errors.Is(err, io.EOF) {
		log.Debug("Stream reached EOF", "bytes", total)

		err = nil
	} else {
		log.Debug("Stream read stopped with error", "error", err, "bytes", total)
	}

	b.CloseWithError(err)
}
