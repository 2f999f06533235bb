package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/memmaker/visibility/engine/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	util.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRunGeneratedCity(t *testing.T) {
	dir := t.TempDir()
	opts, err := parseFlags([]string{
		"-generate", "4", "-size", "8", "-queries", "3000", "-validate",
		"-observers", "20", "-workers", "2",
		"-render", filepath.Join(dir, "city.png"), "-render-size", "256",
		"-save", filepath.Join(dir, "city.yaml"),
	}, io.Discard)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(opts, &out))
	assert.Contains(t, out.String(), `scene "city-4"`)
	assert.Contains(t, out.String(), "0 mismatches against the linear scan")
	assert.Contains(t, out.String(), "20 observers")
	assert.Contains(t, out.String(), "query kd-tree x3000")
	assert.FileExists(t, filepath.Join(dir, "city.png"))
	assert.FileExists(t, filepath.Join(dir, "city.yaml"))

	// the saved scene loads back and gives the same tree
	reloaded, err := parseFlags([]string{"-scene", filepath.Join(dir, "city.yaml"), "-queries", "500", "-validate", "-strategy", "median"}, io.Discard)
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, run(reloaded, &out))
	assert.Contains(t, out.String(), `scene "city-4"`)
	assert.Contains(t, out.String(), "tree (median)")
}

func TestRunWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_depth: 3\n"), 0o644))
	opts, err := parseFlags([]string{"-size", "4", "-queries", "100", "-config", path}, io.Discard)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(opts, &out))
	assert.Contains(t, out.String(), "tree (sah)")
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	opts, err := parseFlags([]string{"-size", "2", "-strategy", "grid"}, io.Discard)
	require.NoError(t, err)
	assert.ErrorContains(t, run(opts, io.Discard), "unknown build strategy")
}

func TestParseFlagsErrors(t *testing.T) {
	_, err := parseFlags([]string{"-queries", "-1"}, io.Discard)
	assert.Error(t, err)
	_, err = parseFlags([]string{"-nope"}, io.Discard)
	assert.Error(t, err)
}

func TestRandomSegmentsAreReproducible(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)
	s, err := loadScene(opts)
	require.NoError(t, err)
	assert.Equal(t, randomSegments(s.Bounds(), 10, 9), randomSegments(s.Bounds(), 10, 9))
}
