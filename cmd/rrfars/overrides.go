package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/rrfars/internal/component"
)

// keyValueFlag collects repeatable KEY=VALUE flags.
type keyValueFlag map[string]string

func (kv *keyValueFlag) String() string {
	if kv == nil || len(*kv) == 0 {
		return ""
	}
	var pairs []string
	for key, value := range *kv {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}

func (kv *keyValueFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected KEY=VALUE, got %q", value)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("override key is empty in %q", value)
	}
	if *kv == nil {
		*kv = keyValueFlag{}
	}
	(*kv)[key] = val
	return nil
}

func (kv *keyValueFlag) Type() string {
	return "KEY=VALUE"
}

// buildOverrides layers --set values over the optional overrides file.
func buildOverrides(path string, sets keyValueFlag) (component.Definition, error) {
	var def component.Definition
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fileDef, err := readOverridesFile(trimmed)
		if err != nil {
			return nil, err
		}
		def = fileDef
	}
	if len(sets) > 0 {
		if def == nil {
			def = component.Definition{}
		}
		for key, value := range sets {
			def[key] = value
		}
	}
	if len(def) == 0 {
		return nil, nil
	}
	return def, nil
}

func readOverridesFile(path string) (component.Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open overrides file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("overrides file %s is empty", path)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides file %s: %w", path, err)
	}
	return component.Definition(raw), nil
}
