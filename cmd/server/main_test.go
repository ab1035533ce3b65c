package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, store string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--config", t.TempDir(), "--store", store}, args...))
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestSearchCommand(t *testing.T) {
	store := filepath.Join(t.TempDir(), "custom.json")
	out := run(t, store, "search", "goblet", "-n", "3")
	assert.Contains(t, out, "goblet-squat")
	assert.Contains(t, out, "Quads")

	out = run(t, store, "search", "zzzzzz")
	assert.Contains(t, out, "No matches.")
}

func TestQueryCommand(t *testing.T) {
	store := filepath.Join(t.TempDir(), "custom.json")
	out := run(t, store, "query", "--subregion", "Chest", "--deep", "Upper Chest")
	assert.Contains(t, out, "incline-barbell-bench-press")
	assert.NotContains(t, out, "decline-barbell-bench-press")
}

func TestCustomCommands(t *testing.T) {
	store := filepath.Join(t.TempDir(), "custom.json")

	assert.Contains(t, run(t, store, "custom", "list"), "No custom exercises.")
	out := run(t, store, "custom", "add", "Towel", "Row", "--primary", "lats", "--equipment", "other", "--movement", "pull")
	assert.Contains(t, out, "Added custom_")

	out = run(t, store, "custom", "list")
	assert.Contains(t, out, "Towel Row")
	assert.Contains(t, run(t, store, "muscle", "Back"), "Towel Row")
}

func TestQueryCommandRejectsUnknownBucket(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--config", t.TempDir(), "query", "--equipment", "spaceship"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
