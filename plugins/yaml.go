package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefinitionFile is one definition together with the file it came from.
// Index is the 1-based position inside a source holding several definitions
// (a YAML stream or a Go script) and 0 for single-definition files.
type DefinitionFile struct {
	Definition ComponentDefinition
	Path       string
	Index      int
}

// Dir returns the directory relative path keys resolve against.
func (f DefinitionFile) Dir() string {
	return filepath.Dir(f.Path)
}

// Source names the definition for listings and error messages.
func (f DefinitionFile) Source() string {
	if f.Index > 0 {
		return fmt.Sprintf("%s#%d", f.Path, f.Index)
	}
	return f.Path
}

// ParseDefinitionYAML decodes a payload holding exactly one definition.
func ParseDefinitionYAML(data []byte) (ComponentDefinition, error) {
	defs, err := DecodeDefinitions(bytes.NewReader(data))
	if err != nil {
		return ComponentDefinition{}, err
	}
	if len(defs) != 1 {
		return ComponentDefinition{}, fmt.Errorf("plugin: expected one definition, found %d", len(defs))
	}
	return defs[0], nil
}

// DecodeDefinitions reads every document of a YAML stream, so one file can
// declare the morning and evening sessions of a study side by side. Unknown
// top-level fields are rejected; the definition body is free-form.
func DecodeDefinitions(r io.Reader) ([]ComponentDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var defs []ComponentDefinition
	for doc := 1; ; doc++ {
		var def ComponentDefinition
		err := dec.Decode(&def)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("plugin: document %d: %w", doc, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("plugin: document %d: %w", doc, err)
		}
		defs = append(defs, def.Normalized())
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("plugin: definition payload is empty")
	}
	return defs, nil
}

// LoadDefinitionFile reads the definitions of a YAML file.
func LoadDefinitionFile(path string) ([]DefinitionFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: open %s: %w", path, err)
	}
	defer f.Close()
	defs, err := DecodeDefinitions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	clean := filepath.Clean(path)
	files := make([]DefinitionFile, len(defs))
	for i, def := range defs {
		files[i] = DefinitionFile{Definition: def, Path: clean}
		if len(defs) > 1 {
			files[i].Index = i + 1
		}
	}
	return files, nil
}
