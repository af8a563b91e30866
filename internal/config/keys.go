package config

import "strings"

// Configuration keys accepted by ApplyOverrides.
const (
	KeyWaitPause        = "waitPause"
	KeyMaxWait          = "maxWait"
	KeyTempFolder       = "tempFolder"
	KeyRemoteMode       = "remoteMode"
	KeyExecutable       = "executable"
	KeyCharset          = "charset"
	KeyMergeErrorStream = "mergeErrorStream"
	KeyStartupGrace     = "startupGrace"
)

// RuntimeKeys are the keys a running session accepts. The others only take
// effect when a session is opened.
var RuntimeKeys = []string{KeyWaitPause, KeyMaxWait, KeyTempFolder, KeyRemoteMode}

// NormalizeKey maps snake_case, kebab-case and lower-case spellings to the
// canonical camelCase key.
//
// Examples:
//   - "wait_pause" -> "waitPause"
//   - "max-wait" -> "maxWait"
//   - "tempfolder" -> "tempFolder"
func NormalizeKey(key string) string {
	folded := strings.ToLower(strings.NewReplacer("_", "", "-", "", ".", "").Replace(key))

	switch folded {
	case "waitpause":
		return KeyWaitPause
	case "maxwait":
		return KeyMaxWait
	case "tempfolder":
		return KeyTempFolder
	case "remotemode":
		return KeyRemoteMode
	case "executable", "executablepath":
		return KeyExecutable
	case "charset", "codepage":
		return KeyCharset
	case "mergeerrorstream":
		return KeyMergeErrorStream
	case "startupgrace":
		return KeyStartupGrace
	default:
		return key
	}
}

// IsRuntimeKey reports whether key can be changed on an open session.
func IsRuntimeKey(key string) bool {
	for _, k := range RuntimeKeys {
		if k == NormalizeKey(key) {
			return true
		}
	}

	return false
}
