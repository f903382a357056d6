package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyFallbackOnly(t *testing.T) {
	out, err := run(t, "classify", "--fallback-only", "There", "is", "a", "fire", "in", "the", "kitchen")
	require.NoError(t, err)
	assert.Contains(t, out, "urgent:  true")
	assert.Contains(t, out, "source:  fallback")
	assert.Contains(t, out, "failure: not_configured")

	out, err = run(t, "classify", "--fallback-only", "Need some books for the kids")
	require.NoError(t, err)
	assert.Contains(t, out, "urgent:  false")
}

func TestClassifyRequiresText(t *testing.T) {
	_, err := run(t, "classify", "--fallback-only")
	assert.Error(t, err)
}

func TestClassifyMissingConfigDir(t *testing.T) {
	_, err := run(t, "classify", "--config", t.TempDir(), "fire")
	assert.Error(t, err)
}

func TestMigrateRejectsArgs(t *testing.T) {
	_, err := run(t, "migrate", "extra")
	assert.Error(t, err)
}
