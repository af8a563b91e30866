package shell

import (
	"path/filepath"
	"strings"
)

// ScriptSentinel is printed by the last line of every materialized script.
// A stream reader in script mode stops when it sees a line equal to it.
const ScriptSentinel = "--END-SHELLSESSION-SCRIPT--"

// DialectKind identifies an interpreter family.
type DialectKind string

const (
	// DialectPowerShell covers Windows PowerShell and PowerShell Core.
	DialectPowerShell DialectKind = "powershell"
	// DialectPOSIX covers sh-compatible shells.
	DialectPOSIX DialectKind = "posix"
)

// Dialect describes the interpreter syntax a session relies on.
type Dialect struct {
	Kind DialectKind

	// DefaultArgs keep the interpreter alive and reading commands from stdin.
	DefaultArgs []string

	// LineTerminator joins output lines and terminates written commands.
	LineTerminator string

	// ScriptExtension is the file extension for materialized scripts.
	ScriptExtension string

	// ExitCommand asks the interpreter to exit gracefully.
	ExitCommand string
}

// PowerShell is the dialect for powershell.exe and pwsh.
var PowerShell = &Dialect{
	Kind: DialectPowerShell,
	DefaultArgs: []string{
		"-NoLogo",
		"-NoProfile",
		"-ExecutionPolicy", "Bypass",
		"-NoExit",
		"-Command", "-",
	},
	LineTerminator:  "\r\n",
	ScriptExtension: ".ps1",
	ExitCommand:     "exit",
}

// POSIX is the dialect for sh, bash, dash, zsh and friends.
var POSIX = &Dialect{
	Kind:            DialectPOSIX,
	DefaultArgs:     []string{"-s"},
	LineTerminator:  "\n",
	ScriptExtension: ".sh",
	ExitCommand:     "exit",
}

// DialectFor picks the dialect from the interpreter's file name.
// Unknown interpreters are treated as POSIX shells.
func DialectFor(path string) *Dialect {
	name := filepath.Base(path)
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}

	name = strings.TrimSuffix(strings.ToLower(name), ".exe")

	switch name {
	case "powershell", "pwsh", "pwsh-preview":
		return PowerShell
	default:
		return POSIX
	}
}

// EchoCommand returns a command that prints text verbatim on its own line.
func (d *Dialect) EchoCommand(text string) string {
	switch d.Kind {
	case DialectPowerShell:
		return "Write-Output " + d.Quote(text)
	default:
		return "printf '%s\\n' " + d.Quote(text)
	}
}

// ScriptInvocation returns the command that runs the script at path.
// params are appended as-is. POSIX scripts read stdin from /dev/null so
// they cannot consume the session's later commands.
func (d *Dialect) ScriptInvocation(interpreter, path, params string) string {
	var cmd string

	switch d.Kind {
	case DialectPowerShell:
		cmd = "& " + d.Quote(path)
	default:
		cmd = d.Quote(interpreter) + " " + d.Quote(path)
	}

	if params = strings.TrimSpace(params); params != "" {
		cmd += " " + params
	}

	if d.Kind != DialectPowerShell {
		cmd += " </dev/null"
	}

	return cmd
}

// WithMarker appends a trailing empty-line write to command on a line of
// its own, so a trailing comment in command cannot swallow it.
func (d *Dialect) WithMarker(command string) string {
	return command + d.LineTerminator + d.EchoCommand("")
}

// Quote wraps s in single quotes, escaping embedded quotes for the dialect.
func (d *Dialect) Quote(s string) string {
	switch d.Kind {
	case DialectPowerShell:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
}
