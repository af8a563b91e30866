package script

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	sserrors "github.com/wagiedev/shellsession-go/internal/errors"
	"github.com/wagiedev/shellsession-go/internal/shell"
)

func TestMaterialize_POSIX(t *testing.T) {
	dir := t.TempDir()
	m := NewMaterializer(slog.Default(), shell.POSIX, dir)

	path, err := m.Materialize(strings.NewReader("echo one\necho two\n"))
	require.NoError(t, err)

	require.Equal(t, dir, filepath.Dir(path))
	require.True(t, strings.HasPrefix(filepath.Base(path), filePrefix))
	require.Equal(t, ".sh", filepath.Ext(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"echo one\necho two\nprintf '%s\\n' ''\nprintf '%s\\n' '"+shell.ScriptSentinel+"'\n",
		string(content),
	)
}

func TestMaterialize_PowerShellUsesCRLF(t *testing.T) {
	m := NewMaterializer(slog.Default(), shell.PowerShell, t.TempDir())

	path, err := m.Materialize(strings.NewReader("Get-Date\nGet-Location"))
	require.NoError(t, err)
	require.Equal(t, ".ps1", filepath.Ext(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"Get-Date\r\nGet-Location\r\nWrite-Output ''\r\nWrite-Output '"+shell.ScriptSentinel+"'\r\n",
		string(content),
	)
}

func TestMaterialize_EmptySourceStillHasSentinel(t *testing.T) {
	m := NewMaterializer(slog.Default(), shell.POSIX, t.TempDir())

	path, err := m.Materialize(strings.NewReader(""))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), shell.ScriptSentinel)
}

func TestMaterialize_UniqueNames(t *testing.T) {
	m := NewMaterializer(slog.Default(), shell.POSIX, t.TempDir())

	first, err := m.Materialize(strings.NewReader("true"))
	require.NoError(t, err)

	second, err := m.Materialize(strings.NewReader("true"))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestMaterialize_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	m := NewMaterializer(slog.Default(), shell.POSIX, dir)

	_, err := m.Materialize(strings.NewReader("true"))
	require.Error(t, err)

	scriptErr, ok := errors.AsType[*sserrors.ScriptError](err)
	require.True(t, ok)
	require.Equal(t, "create", scriptErr.Op)
	require.ErrorIs(t, err, os.ErrNotExist)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestMaterialize_SourceErrorRemovesFile(t *testing.T) {
	dir := t.TempDir()
	m := NewMaterializer(slog.Default(), shell.POSIX, dir)

	_, err := m.Materialize(failingReader{})
	require.ErrorIs(t, err, io.ErrClosedPipe)

	scriptErr, ok := errors.AsType[*sserrors.ScriptError](err)
	require.True(t, ok)
	require.Equal(t, "read", scriptErr.Op)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRemove(t *testing.T) {
	m := NewMaterializer(slog.Default(), shell.POSIX, t.TempDir())

	path, err := m.Materialize(strings.NewReader("true"))
	require.NoError(t, err)

	m.Remove(path)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	// Removing twice, or an empty path, is a no-op.
	m.Remove(path)
	m.Remove("")
}

func TestDir_DefaultsToSystemTemp(t *testing.T) {
	m := NewMaterializer(slog.Default(), shell.POSIX, "")

	require.Equal(t, os.TempDir(), m.Dir())
}
