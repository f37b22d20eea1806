package component

import (
	"fmt"
	"strconv"
	"strings"
)

// Definition is the immutable key/value configuration a host hands to a
// component. Values come from YAML or Go definition files, so scalars may
// arrive as strings, bools, or numbers.
type Definition map[string]any

// Clone returns a copy with trimmed keys so later mutation by the host cannot
// reach the component.
func (d Definition) Clone() Definition {
	if len(d) == 0 {
		return Definition{}
	}
	clone := make(Definition, len(d))
	for key, value := range d {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		clone[trimmed] = value
	}
	return clone
}

// Has reports whether key is present with a non-empty value.
func (d Definition) Has(key string) bool {
	value, ok := d[key]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the value for key rendered as a trimmed string.
func (d Definition) String(key string) string {
	value, ok := d[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Bool interprets key as a boolean flag. Missing keys yield fallback.
func (d Definition) Bool(key string, fallback bool) (bool, error) {
	value, ok := d[key]
	if !ok || value == nil {
		return fallback, nil
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "":
			return fallback, nil
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return fallback, fmt.Errorf("component: %s: %q is not a boolean", key, v)
	default:
		return fallback, fmt.Errorf("component: %s: unsupported boolean type %T", key, value)
	}
}

// Int64 interprets key as an integer. The second return reports presence.
func (d Definition) Int64(key string) (int64, bool, error) {
	value, ok := d[key]
	if !ok || value == nil {
		return 0, false, nil
	}
	switch v := value.(type) {
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case uint64:
		return int64(v), true, nil
	case float64:
		return int64(v), true, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, true, fmt.Errorf("component: %s: %w", key, err)
		}
		return n, true, nil
	default:
		return 0, true, fmt.Errorf("component: %s: unsupported integer type %T", key, value)
	}
}
