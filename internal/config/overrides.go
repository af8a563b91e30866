package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ApplyOverrides updates o from a key/value mapping.
//
// Durations are milliseconds ("50") or Go duration strings ("50ms").
// Invalid values are logged and the current value is kept; unknown keys are
// logged at debug level and ignored. ApplyOverrides never fails.
func (o *Options) ApplyOverrides(overrides map[string]string, log *slog.Logger) {
	if log == nil {
		log = o.Logger
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	for rawKey, value := range overrides {
		key := NormalizeKey(rawKey)
		value = strings.TrimSpace(value)

		switch key {
		case KeyWaitPause:
			o.WaitPause = durationOrKeep(log, key, value, o.WaitPause)
		case KeyMaxWait:
			o.MaxWait = durationOrKeep(log, key, value, o.MaxWait)
		case KeyStartupGrace:
			o.StartupGrace = durationOrKeep(log, key, value, o.StartupGrace)
		case KeyTempFolder:
			o.TempFolder = value
		case KeyRemoteMode:
			o.RemoteMode = boolOrKeep(log, key, value, o.RemoteMode)
		case KeyMergeErrorStream:
			o.MergeErrorStream = boolOrKeep(log, key, value, o.MergeErrorStream)
		case KeyExecutable:
			o.ExecutablePath = value
		case KeyCharset:
			o.Charset = value
		default:
			log.Debug("Ignoring unknown configuration key", "key", rawKey)
		}
	}
}

// ParseDuration parses a positive millisecond count or Go duration string.
func ParseDuration(value string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		if ms <= 0 {
			return 0, fmt.Errorf("duration must be positive: %d", ms)
		}

		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("not a number of milliseconds or a duration: %q", value)
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %s", d)
	}

	return d, nil
}

func durationOrKeep(log *slog.Logger, key, value string, current time.Duration) time.Duration {
	d, err := ParseDuration(value)
	if err != nil {
		log.Warn("Invalid configuration value, keeping previous",
			"key", key,
			"value", value,
			"current", current,
			"error", err,
		)

		return current
	}

	return d
}

func boolOrKeep(log *slog.Logger, key, value string, current bool) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn("Invalid configuration value, keeping previous",
			"key", key,
			"value", value,
			"current", current,
			"error", err,
		)

		return current
	}

	return b
}
