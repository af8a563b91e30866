package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables read by LoadEnv.
const EnvPrefix = "SHELLSESSION_"

// ParseError indicates a configuration file could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads a TOML or YAML configuration file into a flat key/value map
// suitable for ApplyOverrides. The format is chosen by file extension.
// Nested tables are flattened, keeping only the innermost key, so both
//
//	waitPause = 10
//
// and
//
//	[session]
//	waitPause = 10
//
// produce {"waitPause": "10"}. A missing file yields an empty map.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}

		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw map[string]any

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, &ParseError{Path: path, Err: fmt.Errorf("unsupported config format %q", filepath.Ext(path))}
	}

	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	out := make(map[string]string, len(raw))
	flatten(raw, out)

	return out, nil
}

// LoadEnv reads variables with the given prefix into a key/value map.
// SHELLSESSION_WAIT_PAUSE=20 becomes {"WAIT_PAUSE": "20"}; NormalizeKey
// resolves the spelling when the map is applied.
func LoadEnv(prefix string) map[string]string {
	out := make(map[string]string)

	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}

		out[strings.TrimPrefix(name, prefix)] = value
	}

	return out
}

// Merge combines maps left to right; later maps win.
func Merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)

	for _, m := range maps {
		for k, v := range m {
			out[NormalizeKey(k)] = v
		}
	}

	return out
}

func flatten(in map[string]any, out map[string]string) {
	// Scalars are written after nested tables, so a top-level key wins.
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var scalars []string

	for _, k := range keys {
		if nested, ok := in[k].(map[string]any); ok {
			flatten(nested, out)

			continue
		}

		scalars = append(scalars, k)
	}

	for _, k := range scalars {
		out[k] = fmt.Sprint(in[k])
	}
}
