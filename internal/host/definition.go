package host

import (
	"path/filepath"
	"strings"

	"github.com/kingrea/rrfars/internal/component"
)

// pathKeySuffixes mark definition keys whose values are file system paths.
var pathKeySuffixes = []string{"File", "Directory", "Dir"}

// mergeDefinitions layers definitions left to right; later values win.
func mergeDefinitions(layers ...component.Definition) component.Definition {
	merged := component.Definition{}
	for _, layer := range layers {
		for key, value := range layer.Clone() {
			merged[key] = value
		}
	}
	return merged
}

// resolvePaths anchors relative path values at base, the directory holding
// the definition file.
func resolvePaths(def component.Definition, base string) component.Definition {
	resolved := def.Clone()
	if base == "" {
		return resolved
	}
	for key := range resolved {
		if !isPathKey(key) {
			continue
		}
		value := resolved.String(key)
		if value == "" || filepath.IsAbs(value) {
			continue
		}
		resolved[key] = filepath.Join(base, value)
	}
	return resolved
}

func isPathKey(key string) bool {
	for _, suffix := range pathKeySuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
