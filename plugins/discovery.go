package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/rrfars/internal/component"
)

// LoadDefinitionDir reads every *.yaml, *.yml, and *.go definition in dir.
// A missing directory holds no definitions.
func LoadDefinitionDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	var files []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		var loaded []DefinitionFile
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			loaded, err = LoadDefinitionFile(path)
		case ".go":
			loaded, err = LoadGoDefinitionFile(path)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, loaded...)
	}
	return files, nil
}

// Catalog indexes every definition found under a definitions directory.
type Catalog struct {
	files []DefinitionFile
	byID  map[string]int
}

// LoadCatalog discovers the definitions in dir. Duplicate IDs are an error
// so "rrfars run <id>" is never ambiguous.
func LoadCatalog(dir string) (*Catalog, error) {
	files, err := LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Definition.ID < files[j].Definition.ID })
	catalog := &Catalog{byID: make(map[string]int, len(files))}
	for _, file := range files {
		id := file.Definition.ID
		if existing, ok := catalog.byID[id]; ok {
			return nil, fmt.Errorf("plugin: duplicate definition id %s (%s and %s)", id, catalog.files[existing].Source(), file.Source())
		}
		catalog.byID[id] = len(catalog.files)
		catalog.files = append(catalog.files, file)
	}
	return catalog, nil
}

// Lookup returns the definition with id.
func (c *Catalog) Lookup(id string) (DefinitionFile, bool) {
	if c == nil {
		return DefinitionFile{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return DefinitionFile{}, false
	}
	return c.files[idx], true
}

// All returns every definition sorted by ID.
func (c *Catalog) All() []DefinitionFile {
	if c == nil {
		return nil
	}
	return append([]DefinitionFile(nil), c.files...)
}

// CheckBundles ensures every definition names a bundle known to reg.
func (c *Catalog) CheckBundles(reg *component.Registry) error {
	if c == nil || reg == nil {
		return nil
	}
	for _, file := range c.files {
		if _, err := reg.Info(file.Definition.Bundle); err != nil {
			return fmt.Errorf("plugin: %s (%s): %w", file.Definition.ID, file.Source(), err)
		}
	}
	return nil
}

// MissingKeys lists the keys the definition's bundle requires that neither
// the definition nor extra supply.
func MissingKeys(reg *component.Registry, file DefinitionFile, extra component.Definition) ([]string, error) {
	info, err := reg.Info(file.Definition.Bundle)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, key := range info.RequiredKeys {
		if file.Definition.Definition.Has(key) || extra.Has(key) {
			continue
		}
		missing = append(missing, key)
	}
	return missing, nil
}
