package adapters

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stagingProject(t *testing.T, files map[string]string) string {
	t.Helper()
	parent := t.TempDir()
	projectDir := filepath.Join(parent, "demo")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, name), []byte(content), 0o644))
	}
	return projectDir
}

func TestStagingAdapterStage(t *testing.T) {
	projectDir := stagingProject(t, map[string]string{
		"pyproject.toml": "[tool.poetry]\nname = \"demo\"\n",
		"poetry.lock":    "# lock\n",
		"README.md":      "# demo\n",
	})
	adapter := NewStagingAdapter()

	candidate := []byte("[tool.poetry]\nname = \"demo-relaxed\"\n")
	staged, cleanup, err := adapter.Stage(projectDir, candidate)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, filepath.Dir(projectDir), filepath.Dir(staged))
	assert.True(t, strings.HasPrefix(filepath.Base(staged), ".pyrelax-check-"))

	manifest, err := os.ReadFile(filepath.Join(staged, "pyproject.toml"))
	require.NoError(t, err)
	assert.Equal(t, candidate, manifest)

	lock, err := os.ReadFile(filepath.Join(staged, "poetry.lock"))
	require.NoError(t, err)
	assert.Equal(t, "# lock\n", string(lock))

	readme, err := os.ReadFile(filepath.Join(staged, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# demo\n", string(readme))
}

func TestStagingAdapterStageBareProject(t *testing.T) {
	projectDir := stagingProject(t, map[string]string{
		"pyproject.toml": "[tool.poetry]\nname = \"demo\"\n",
	})
	adapter := NewStagingAdapter()

	staged, cleanup, err := adapter.Stage(projectDir, []byte("candidate"))
	require.NoError(t, err)
	defer cleanup()

	entries, err := os.ReadDir(staged)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pyproject.toml", entries[0].Name())
}

func TestStagingAdapterCleanup(t *testing.T) {
	projectDir := stagingProject(t, map[string]string{
		"pyproject.toml": "x",
	})
	adapter := NewStagingAdapter()

	staged, cleanup, err := adapter.Stage(projectDir, []byte("candidate"))
	require.NoError(t, err)

	cleanup()
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}
