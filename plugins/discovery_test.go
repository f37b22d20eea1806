package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/rrfars/internal/component"
	"github.com/kingrea/rrfars/internal/rrfars"
)

const otherDefinition = `id: ars-evening
version: 1.0.0
bundle: rrfars
definition:
  RRFARSTaskName: Evening ARS
`

func writeDefinition(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "morning.yaml", sampleDefinition)
	writeDefinition(t, dir, "evening.yml", otherDefinition)

	catalog, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	all := catalog.All()
	if len(all) != 2 || all[0].Definition.ID != "ars-evening" || all[1].Definition.ID != "ars-morning" {
		t.Fatalf("unexpected catalog order: %+v", all)
	}
	if _, ok := catalog.Lookup("ars-morning"); !ok {
		t.Fatalf("expected lookup to find ars-morning")
	}
	if _, ok := catalog.Lookup("missing"); ok {
		t.Fatalf("unexpected lookup hit")
	}
}

func TestLoadCatalogDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "a.yaml", sampleDefinition)
	writeDefinition(t, dir, "b.yaml", sampleDefinition)
	if _, err := LoadCatalog(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestCatalogCheckBundles(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "morning.yaml", sampleDefinition)
	catalog, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	reg := component.NewRegistry()
	if err := catalog.CheckBundles(reg); err == nil {
		t.Fatalf("expected unknown bundle error")
	}
	if err := rrfars.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := catalog.CheckBundles(reg); err != nil {
		t.Fatalf("check bundles: %v", err)
	}
}

func TestMissingKeys(t *testing.T) {
	reg := component.NewRegistry()
	if err := rrfars.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	def, err := ParseDefinitionYAML([]byte(otherDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	file := DefinitionFile{Definition: def}

	missing, err := MissingKeys(reg, file, nil)
	if err != nil {
		t.Fatalf("missing keys: %v", err)
	}
	want := "RRFARSQuestionFile,RRFARSAdjective1,RRFARSAdjective2,RRFARSAdjective3,RRFARSAdjective4,RRFARSAdjective5"
	if got := strings.Join(missing, ","); got != want {
		t.Fatalf("missing = %s, want %s", got, want)
	}

	extra := component.Definition{"RRFARSQuestionFile": "q.txt"}
	for i := 1; i <= 5; i++ {
		extra[rrfars.AdjectiveKey(i-1)] = "label"
	}
	missing, err = MissingKeys(reg, file, extra)
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing = %v, %v", missing, err)
	}

	file.Definition.Bundle = "unknown"
	if _, err := MissingKeys(reg, file, nil); err == nil {
		t.Fatalf("expected unknown bundle error")
	}
}
