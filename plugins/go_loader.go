package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/kingrea/rrfars/internal/component"
)

const (
	goDefinitionFunc = "ComponentDefinitions"

	// scriptPackage is imported by scripts as "rrfars".
	scriptPackage = "rrfars/rrfars"
)

// LoadGoDefinitionFile interprets a definition script with yaegi. A script
// declares
//
//	func ComponentDefinitions() ([]map[string]any, error)
//
// and may import "rrfars" for helpers bound to its own directory:
//
//	rrfars.Dir() string
//	rrfars.QuestionFiles(pattern string) ([]string, error)
//
// which lets one script emit a definition per question file.
func LoadGoDefinitionFile(path string) ([]DefinitionFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: resolve %s: %w", path, err)
	}
	code, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: %s: load stdlib: %w", path, err)
	}
	if err := i.Use(scriptExports(filepath.Dir(abs))); err != nil {
		return nil, fmt.Errorf("plugin: %s: load helpers: %w", path, err)
	}
	if _, err := i.EvalPath(abs); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fn, err := i.Eval(goDefinitionFunc)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s() ([]map[string]any, error): %w", path, goDefinitionFunc, err)
	}
	raws, err := callDefinitionFunc(fn)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}

	files := make([]DefinitionFile, 0, len(raws))
	for idx, raw := range raws {
		def, err := definitionFromMap(raw)
		if err == nil {
			err = def.Validate()
		}
		if err != nil {
			return nil, fmt.Errorf("plugin: %s definition %d: %w", path, idx+1, err)
		}
		files = append(files, DefinitionFile{Definition: def.Normalized(), Path: filepath.Clean(abs), Index: idx + 1})
	}
	return files, nil
}

func scriptExports(dir string) interp.Exports {
	return interp.Exports{
		scriptPackage: {
			"Dir": reflect.ValueOf(func() string { return dir }),
			"QuestionFiles": reflect.ValueOf(func(pattern string) ([]string, error) {
				return questionFiles(dir, pattern)
			}),
		},
	}
}

// questionFiles globs pattern inside dir and returns sorted absolute paths.
func questionFiles(dir, pattern string) ([]string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = "*.txt"
	}
	if filepath.IsAbs(pattern) || strings.HasPrefix(filepath.Clean(pattern), "..") {
		return nil, fmt.Errorf("pattern %q must stay inside %s", pattern, dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func callDefinitionFunc(fn reflect.Value) ([]map[string]any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goDefinitionFunc)
	}
	if fn.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%s must take no arguments", goDefinitionFunc)
	}
	out := fn.Call(nil)
	switch len(out) {
	case 1:
	case 2:
		if err, ok := out[1].Interface().(error); ok && err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goDefinitionFunc)
	}
	list := out[0]
	if list.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return a slice, got %s", goDefinitionFunc, list.Type())
	}
	raws := make([]map[string]any, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		m, ok := list.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s()[%d] is %s, want map[string]any", goDefinitionFunc, i, list.Index(i).Type())
		}
		raws = append(raws, m)
	}
	return raws, nil
}

// definitionFromMap maps a script's definition onto ComponentDefinition,
// rejecting fields the YAML schema would reject.
func definitionFromMap(raw map[string]any) (ComponentDefinition, error) {
	var def ComponentDefinition
	for key, value := range raw {
		if key == "definition" {
			body, err := definitionBody(value)
			if err != nil {
				return def, err
			}
			def.Definition = body
			continue
		}
		text, ok := value.(string)
		if !ok {
			return def, fmt.Errorf("%s must be a string, got %T", key, value)
		}
		switch key {
		case "id":
			def.ID = text
		case "name":
			def.Name = text
		case "description":
			def.Description = text
		case "version":
			def.Version = text
		case "bundle":
			def.Bundle = text
		default:
			return def, fmt.Errorf("unknown field %q", key)
		}
	}
	return def, nil
}

func definitionBody(value any) (component.Definition, error) {
	switch body := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return component.Definition(body).Clone(), nil
	case map[string]string:
		def := make(component.Definition, len(body))
		for k, v := range body {
			def[k] = v
		}
		return def.Clone(), nil
	default:
		return nil, fmt.Errorf("definition must be a map, got %T", value)
	}
}
