package integration

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrelax/internal/adapters"
	"pyrelax/internal/app"
	"pyrelax/tests/testutil"
)

// fakePoetry writes a stand-in poetry binary that answers --version,
// records every other invocation to a log file, and exits with the
// given code.
func fakePoetry(t *testing.T, exitCode int) (string, string) {
	t.Helper()
	dir := t.TempDir()
	record := filepath.Join(dir, "record")
	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Poetry (version 1.8.2)"
  exit 0
fi
echo "$@" >> %s
exit %d
`, record, exitCode)
	binary := filepath.Join(dir, "poetry")
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, record
}

func recordedLines(t *testing.T, record string) []string {
	t.Helper()
	data, err := os.ReadFile(record)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func newFlowService(out *bytes.Buffer) app.Service {
	return app.Service{
		Manifest: adapters.NewManifestTOMLAdapter(),
		Resolver: adapters.NewPoetryCLIAdapter("", false),
		Staging:  adapters.NewStagingAdapter(),
		Lockfile: adapters.NewLockReaderAdapter(),
		Output:   adapters.NewConsoleOutputAdapter(out),
	}
}

// TestRelaxWriteFlow exercises the full write path against a copy of
// the fixture project: plan, solver check in a staged directory, then
// the in-place rewrite.
func TestRelaxWriteFlow(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.CopyProject(t, filepath.Join(root, "fixtures", "sample"))
	binary, record := fakePoetry(t, 0)
	originalLock, err := os.ReadFile(filepath.Join(project, "poetry.lock"))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	service := newFlowService(out)

	result, err := service.Relax(t.Context(), app.RelaxRequest{ProjectDir: project, PoetryPath: binary})
	require.NoError(t, err)
	assert.True(t, result.Written)

	rewritten, err := os.ReadFile(filepath.Join(project, "pyproject.toml"))
	require.NoError(t, err)
	text := string(rewritten)
	assert.Contains(t, text, `flask = ">=2.0.0"`)
	assert.Contains(t, text, `click = '>=8.0'`)
	assert.Contains(t, text, `black = ">=22.1.0"  # formatter`)
	assert.Contains(t, text, `requests = ">=2.28.0,<3.0.0"`)
	assert.NotContains(t, text, "^2.0.0")

	// The lockfile is not touched in plain write mode.
	lockAfter, err := os.ReadFile(filepath.Join(project, "poetry.lock"))
	require.NoError(t, err)
	assert.Equal(t, originalLock, lockAfter)

	// Exactly one solver invocation, in dry-run form.
	assert.Equal(t, []string{"update --dry-run --no-interaction"}, recordedLines(t, record))

	// The staged scratch directory is gone again.
	entries, err := os.ReadDir(filepath.Dir(project))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	output := out.String()
	checkIdx := strings.Index(output, "Checking new dependencies can be solved...")
	okIdx := strings.Index(output, "Dependency check successful.")
	updatedIdx := strings.Index(output, "Updated config file with relaxed constraints.")
	require.GreaterOrEqual(t, checkIdx, 0)
	assert.Greater(t, okIdx, checkIdx)
	assert.Greater(t, updatedIdx, okIdx)
}

// TestRelaxIdempotent runs the write flow twice: the second run finds
// nothing caret-shaped left and must leave the manifest alone.
func TestRelaxIdempotent(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.CopyProject(t, filepath.Join(root, "fixtures", "sample"))
	binary, record := fakePoetry(t, 0)

	out := &bytes.Buffer{}
	service := newFlowService(out)

	first, err := service.Relax(t.Context(), app.RelaxRequest{ProjectDir: project, PoetryPath: binary})
	require.NoError(t, err)
	require.True(t, first.Written)
	afterFirst, err := os.ReadFile(filepath.Join(project, "pyproject.toml"))
	require.NoError(t, err)

	out.Reset()
	second, err := service.Relax(t.Context(), app.RelaxRequest{ProjectDir: project, PoetryPath: binary})
	require.NoError(t, err)
	assert.False(t, second.Written)
	assert.Empty(t, second.Plan.Changes)
	assert.Contains(t, out.String(), "No dependency constraints to relax.")

	afterSecond, err := os.ReadFile(filepath.Join(project, "pyproject.toml"))
	require.NoError(t, err)
	assert.Equal(t, afterFirst, afterSecond)

	// Only the first run reached the solver.
	assert.Len(t, recordedLines(t, record), 1)
}

func TestRelaxCheckFlowDoesNotWrite(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.CopyProject(t, filepath.Join(root, "fixtures", "sample"))
	binary, _ := fakePoetry(t, 0)
	original, err := os.ReadFile(filepath.Join(project, "pyproject.toml"))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	result, err := newFlowService(out).Relax(t.Context(), app.RelaxRequest{
		ProjectDir: project,
		PoetryPath: binary,
		Check:      true,
	})
	require.NoError(t, err)
	assert.False(t, result.Written)

	after, err := os.ReadFile(filepath.Join(project, "pyproject.toml"))
	require.NoError(t, err)
	assert.Equal(t, original, after)

	assert.Contains(t, out.String(), "Dependency check successful.")
	assert.NotContains(t, out.String(), "Updated config file")
}

func TestRelaxUnsolvableLeavesManifest(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.CopyProject(t, filepath.Join(root, "fixtures", "sample"))
	binary, _ := fakePoetry(t, 1)
	original, err := os.ReadFile(filepath.Join(project, "pyproject.toml"))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	_, err = newFlowService(out).Relax(t.Context(), app.RelaxRequest{ProjectDir: project, PoetryPath: binary})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))

	after, err := os.ReadFile(filepath.Join(project, "pyproject.toml"))
	require.NoError(t, err)
	assert.Equal(t, original, after)

	entries, err := os.ReadDir(filepath.Dir(project))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed check must not leave a staged directory behind")
}

func TestRelaxUpdateFlow(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.CopyProject(t, filepath.Join(root, "fixtures", "sample"))
	binary, record := fakePoetry(t, 0)

	out := &bytes.Buffer{}
	result, err := newFlowService(out).Relax(t.Context(), app.RelaxRequest{
		ProjectDir: project,
		PoetryPath: binary,
		Update:     true,
	})
	require.NoError(t, err)
	assert.True(t, result.Written)

	lines := recordedLines(t, record)
	require.Len(t, lines, 2)
	assert.Equal(t, "update --dry-run --no-interaction", lines[0])
	assert.Equal(t, "update --no-interaction flask click uvicorn numpy black pytest sphinx", lines[1])
	assert.Contains(t, out.String(), "Running Poetry package installer...")
}

func TestRelaxLockFlow(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.CopyProject(t, filepath.Join(root, "fixtures", "sample"))
	binary, record := fakePoetry(t, 0)

	out := &bytes.Buffer{}
	result, err := newFlowService(out).Relax(t.Context(), app.RelaxRequest{
		ProjectDir: project,
		PoetryPath: binary,
		Lock:       true,
	})
	require.NoError(t, err)
	assert.True(t, result.Written)

	lines := recordedLines(t, record)
	require.Len(t, lines, 2)
	// Fake poetry reports 1.8.2, so the legacy lock flag applies.
	assert.Equal(t, "lock --no-update", lines[1])
}

func TestRelaxOnlyGroupFlow(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.CopyProject(t, filepath.Join(root, "fixtures", "sample"))
	binary, _ := fakePoetry(t, 0)

	out := &bytes.Buffer{}
	result, err := newFlowService(out).Relax(t.Context(), app.RelaxRequest{
		ProjectDir: project,
		PoetryPath: binary,
		Only:       []string{"docs"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sphinx"}, result.Plan.Names())

	rewritten, err := os.ReadFile(filepath.Join(project, "pyproject.toml"))
	require.NoError(t, err)
	text := string(rewritten)
	assert.Contains(t, text, `sphinx = ">=4.4.0"`)
	assert.Contains(t, text, `flask = "^2.0.0"`, "groups outside the scope stay untouched")
}
