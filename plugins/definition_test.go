package plugins

import (
	"strings"
	"testing"

	"github.com/kingrea/rrfars/internal/component"
)

func TestComponentDefinitionValidate(t *testing.T) {
	def := ComponentDefinition{
		ID:      "ars-morning",
		Name:    "Morning ARS",
		Version: "1.0.0",
		Bundle:  "rrfars",
		Definition: component.Definition{
			"RRFARSTaskName": "Morning ARS",
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("expected definition to validate, got %v", err)
	}
	if def.DisplayName() != "Morning ARS" {
		t.Fatalf("unexpected display name %q", def.DisplayName())
	}
}

func TestComponentDefinitionValidateFailures(t *testing.T) {
	body := component.Definition{"RRFARSTaskName": "x"}
	tests := []struct {
		name string
		def  ComponentDefinition
		msg  string
	}{
		{
			name: "missing id",
			def:  ComponentDefinition{Version: "1.0.0", Bundle: "rrfars", Definition: body},
			msg:  "id is required",
		},
		{
			name: "id with separator",
			def:  ComponentDefinition{ID: "a/b", Version: "1.0.0", Bundle: "rrfars", Definition: body},
			msg:  "path separators",
		},
		{
			name: "missing version",
			def:  ComponentDefinition{ID: "ars", Bundle: "rrfars", Definition: body},
			msg:  "version is required",
		},
		{
			name: "missing bundle",
			def:  ComponentDefinition{ID: "ars", Version: "1.0.0", Definition: body},
			msg:  "bundle is required",
		},
		{
			name: "empty definition",
			def:  ComponentDefinition{ID: "ars", Version: "1.0.0", Bundle: "rrfars"},
			msg:  "definition is empty",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.def.Validate(); err == nil || !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("expected error containing %q, got %v", tc.msg, err)
			}
		})
	}
}

func TestNormalizedCopiesDefinition(t *testing.T) {
	def := ComponentDefinition{ID: " ars ", Version: "1", Bundle: " rrfars ", Definition: component.Definition{" key ": "v"}}
	normalized := def.Normalized()
	if normalized.ID != "ars" || normalized.Bundle != "rrfars" {
		t.Fatalf("unexpected normalized definition %+v", normalized)
	}
	normalized.Definition["other"] = 1
	if _, leaked := def.Definition["other"]; leaked {
		t.Fatalf("normalized definition shares storage with the original")
	}
	if normalized.Definition["key"] != "v" {
		t.Fatalf("expected trimmed key, got %v", normalized.Definition)
	}
}
