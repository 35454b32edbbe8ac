//go:build integration

package integration

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pyrelax/internal/adapters"
	"pyrelax/internal/core"
	"pyrelax/internal/policies"
)

const containerManifest = `[tool.poetry]
name = "container-sample"
version = "0.1.0"
description = "Solver check sample"
authors = ["ci <ci@example.com>"]

[tool.poetry.dependencies]
python = "^3.12"
six = "^1.16.0"

[build-system]
requires = ["poetry-core>=1.0.0"]
build-backend = "poetry.core.masonry.api"
`

const impossibleManifest = `[tool.poetry]
name = "container-sample"
version = "0.1.0"
description = "Solver check sample"
authors = ["ci <ci@example.com>"]

[tool.poetry.dependencies]
python = "^3.12"
six = ">=999.0"

[build-system]
requires = ["poetry-core>=1.0.0"]
build-backend = "poetry.core.masonry.api"
`

// TestRelaxAgainstRealPoetry relaxes a small manifest on the host, then
// hands the result to a real poetry inside a container and reads the
// solver verdict from the exit status, the same way the CLI adapter
// does. Needs docker and network access to PyPI.
func TestRelaxAgainstRealPoetry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}

	ctx := t.Context()
	container, cleanup := startPoetryContainer(ctx, t)
	t.Cleanup(cleanup)

	rendered := relaxOnHost(t, containerManifest)
	assert.Contains(t, string(rendered), `six = ">=1.16.0"`)

	require.NoError(t, container.CopyToContainer(ctx, rendered, "/work/pyproject.toml", 0o644))
	code, reader, err := container.Exec(ctx, []string{"poetry", "lock", "--no-interaction", "--directory", "/work"})
	require.NoError(t, err)
	output, _ := io.ReadAll(reader)
	assert.Equal(t, 0, code, "poetry lock failed: %s", string(output))
}

func TestRealPoetryRejectsImpossibleConstraint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}

	ctx := t.Context()
	container, cleanup := startPoetryContainer(ctx, t)
	t.Cleanup(cleanup)

	require.NoError(t, container.CopyToContainer(ctx, []byte(impossibleManifest), "/broken/pyproject.toml", 0o644))
	code, reader, err := container.Exec(ctx, []string{"poetry", "lock", "--no-interaction", "--directory", "/broken"})
	require.NoError(t, err)
	output, _ := io.ReadAll(reader)
	assert.NotEqual(t, 0, code, "an unsatisfiable constraint must fail the solve: %s", string(output))
}

func startPoetryContainer(ctx context.Context, t *testing.T) (testcontainers.Container, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image: "python:3.12-slim",
		Cmd:   []string{"sh", "-c", "mkdir -p /work /broken && pip install --quiet poetry==1.8.3 && sleep 1800"},
		WaitingFor: wait.ForExec([]string{"poetry", "--version"}).
			WithStartupTimeout(5 * time.Minute).
			WithPollInterval(2 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return container, cleanup
}

// relaxOnHost runs the local pipeline over an inline manifest and
// returns the rewritten bytes.
func relaxOnHost(t *testing.T, content string) []byte {
	t.Helper()
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(content), 0o644))

	manifestAdapter := adapters.NewManifestTOMLAdapter()
	raw, err := manifestAdapter.Load(manifestPath)
	require.NoError(t, err)
	manifest, err := core.NewManifestCompiler().Compile(t.Context(), raw)
	require.NoError(t, err)
	scope, err := policies.NewGroupScope(nil, nil)
	require.NoError(t, err)
	selected, err := scope.Select(manifest.Groups)
	require.NoError(t, err)
	plan, _, err := core.NewPlanner().Plan(t.Context(), selected)
	require.NoError(t, err)
	rendered, err := manifestAdapter.Render(manifestPath, plan.Changes)
	require.NoError(t, err)
	return rendered
}
