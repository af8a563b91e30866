// Package script writes script bodies to temporary files that announce their
// own completion.
//
// A materialized script is the caller's source followed by a line printing
// an empty line and one that prints shell.ScriptSentinel, so a stream reader can tell exactly when the
// script finished, even if it pauses its output for a long time.
package script

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/shellsession-go/internal/errors"
	"github.com/wagiedev/shellsession-go/internal/shell"
)

// filePrefix starts every materialized script's file name.
const filePrefix = "shellsession-"

// Materializer creates and removes sentinel-terminated script files.
type Materializer struct {
	log     *slog.Logger
	dialect *shell.Dialect
	dir     string
}

// NewMaterializer creates a materializer writing into dir, or os.TempDir()
// when dir is empty.
func NewMaterializer(log *slog.Logger, dialect *shell.Dialect, dir string) *Materializer {
	return &Materializer{
		log:     log.With("component", "script_materializer"),
		dialect: dialect,
		dir:     dir,
	}
}

// Dir returns the directory scripts are written to.
func (m *Materializer) Dir() string {
	if m.dir == "" {
		return os.TempDir()
	}

	return m.dir
}

// Materialize copies source line by line into a new temp file and appends the
// sentinel lines. Returns the file path, or a ScriptError if the file could
// not be written. A partially written file is removed before returning.
func (m *Materializer) Materialize(source io.Reader) (string, error) {
	name := filePrefix + ulid.Make().String() + m.dialect.ScriptExtension
	path := filepath.Join(m.Dir(), name)

	//nolint:gosec // G304: path is built from a trusted directory and a generated name
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		m.log.Error("Failed to create script file", "path", path, "error", err)

		return "", &errors.ScriptError{Op: "create", Path: path, Err: err}
	}

	if err := m.write(f, source); err != nil {
		_ = f.Close()
		m.Remove(path)

		return "", err
	}

	if err := f.Close(); err != nil {
		m.Remove(path)

		return "", &errors.ScriptError{Op: "close", Path: path, Err: err}
	}

	m.log.Debug("Materialized script", "path", path)

	return path, nil
}

func (m *Materializer) write(f *os.File, source io.Reader) error {
	w := bufio.NewWriter(f)
	term := m.dialect.LineTerminator

	scanner := bufio.NewScanner(source)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := 0

	for scanner.Scan() {
		if _, err := fmt.Fprint(w, scanner.Text(), term); err != nil {
			return &errors.ScriptError{Op: "write", Path: f.Name(), Err: err}
		}

		lines++
	}

	if err := scanner.Err(); err != nil {
		m.log.Error("Failed to read script source", "error", err)

		return &errors.ScriptError{Op: "read", Err: err}
	}

	// The empty line ends any unterminated output so the sentinel starts a
	// line of its own.
	if _, err := fmt.Fprint(w, m.dialect.EchoCommand(""), term); err != nil {
		return &errors.ScriptError{Op: "write", Path: f.Name(), Err: err}
	}

	if _, err := fmt.Fprint(w, m.dialect.EchoCommand(shell.ScriptSentinel), term); err != nil {
		return &errors.ScriptError{Op: "write", Path: f.Name(), Err: err}
	}

	if err := w.Flush(); err != nil {
		return &errors.ScriptError{Op: "write", Path: f.Name(), Err: err}
	}

	m.log.Debug("Wrote script body", "lines", lines)

	return nil
}

// Remove deletes a materialized script. Failures are logged, not returned.
func (m *Materializer) Remove(path string) {
	if path == "" {
		return
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.log.Warn("Failed to remove script file", "path", path, "error", err)

		return
	}

	m.log.Debug("Removed script file", "path", path)
}
