package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidSettings indicates a settings blob that is not valid JSON.
var ErrInvalidSettings = errors.New("settings is not valid JSON")

// MergeSettings deep-merges the override JSON object onto the base
// one. Objects merge recursively; any other value in the override
// replaces the base value wholesale. Empty strings are treated as empty
// objects.
func MergeSettings(base, override string) (string, error) {
	if base == "" {
		base = "{}"
	}
	if override == "" {
		return base, nil
	}

	if !gjson.Valid(base) {
		return "", fmt.Errorf("base: %w", ErrInvalidSettings)
	}
	if !gjson.Valid(override) {
		return "", fmt.Errorf("override: %w", ErrInvalidSettings)
	}

	merged := base
	var mergeErr error

	var walk func(prefix string, value gjson.Result)
	walk = func(prefix string, value gjson.Result) {
		value.ForEach(func(key, val gjson.Result) bool {
			path := escapeKey(key.String())
			if prefix != "" {
				path = prefix + "." + path
			}

			if val.IsObject() && gjson.Get(merged, path).IsObject() {
				walk(path, val)
				return mergeErr == nil
			}

			out, err := sjson.SetRaw(merged, path, val.Raw)
			if err != nil {
				mergeErr = err
				return false
			}
			merged = out
			return true
		})
	}

	walk("", gjson.Parse(override))
	if mergeErr != nil {
		return "", mergeErr
	}
	return merged, nil
}

// escapeKey escapes gjson path metacharacters in an object key.
func escapeKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`)
	return r.Replace(key)
}
