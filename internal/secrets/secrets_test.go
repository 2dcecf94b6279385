// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecret(t *testing.T, dir, name, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0o600))
}

func TestLoad_ReadsAllFiles(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "ncbi-api-key", "abc123\n")
	writeSecret(t, dir, "anthropic-api-key", "  sk-test  ")

	secrets, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "abc123", secrets["ncbi-api-key"])
	assert.Equal(t, "sk-test", secrets["anthropic-api-key"])
}

func TestLoad_MissingDirectoryIsEmpty(t *testing.T) {
	secrets, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, secrets)
}

func TestLoad_SkipsHiddenAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, ".gitignore", "*")
	writeSecret(t, dir, "empty-key", "   \n")
	writeSecret(t, dir, "orcid-email", "reviewer@example.org")

	secrets, err := Load(dir)
	require.NoError(t, err)

	assert.Len(t, secrets, 1)
	assert.Equal(t, "reviewer@example.org", secrets["orcid-email"])
}

func TestLoad_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeSecret(t, dir, "search-api-key", "serp-1")

	secrets, err := Load(dir)
	require.NoError(t, err)

	assert.Len(t, secrets, 1)
	assert.Equal(t, "serp-1", secrets["search-api-key"])
}
