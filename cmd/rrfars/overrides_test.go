package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/rrfars/internal/component"
)

func TestKeyValueFlag(t *testing.T) {
	kv := keyValueFlag{}
	require.NoError(t, kv.Set("RRFARSTaskName=Evening ARS"))
	require.NoError(t, kv.Set("RRFARSRandomSeed=3=4"))
	require.Error(t, kv.Set("novalue"))
	require.Error(t, kv.Set("=x"))
	require.Equal(t, "RRFARSRandomSeed=3=4, RRFARSTaskName=Evening ARS", kv.String())
}

func TestBuildOverrides(t *testing.T) {
	def, err := buildOverrides("", nil)
	require.NoError(t, err)
	require.Nil(t, def)

	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("RRFARSZeroBased: true\nRRFARSTaskName: From file\n"), 0o644))
	def, err = buildOverrides(path, keyValueFlag{"RRFARSTaskName": "From flag"})
	require.NoError(t, err)
	require.Equal(t, component.Definition{"RRFARSZeroBased": true, "RRFARSTaskName": "From flag"}, def)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	_, err = buildOverrides(empty, nil)
	require.ErrorContains(t, err, "is empty")
}
