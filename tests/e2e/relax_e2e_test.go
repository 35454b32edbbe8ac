package e2e

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrelax/internal/types"
	"pyrelax/tests/testutil"
)

func runPyrelax(t *testing.T, root string, args ...string) ([]byte, error) {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "./cmd/pyrelax"}, args...)...)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	return cmd.CombinedOutput()
}

func TestRelaxDryRunE2E(t *testing.T) {
	root := testutil.RepoRoot(t)
	manifestPath := filepath.Join(root, "fixtures", "sample", "pyproject.toml")
	before, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	out, err := runPyrelax(t, root, "relax", "--project", "fixtures/sample", "--dry-run")
	require.NoError(t, err, string(out))

	assert.Contains(t, string(out), "Proposed updates:")
	assert.Contains(t, string(out), "flask: ^2.0.0 -> >=2.0.0")
	assert.Contains(t, string(out), "Skipped update of config file due to dry-run flag.")

	after, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "dry run must leave the fixture untouched")
}

func TestInspectE2E(t *testing.T) {
	root := testutil.RepoRoot(t)

	out, err := runPyrelax(t, root, "inspect",
		"--project", "fixtures/sample",
		"--format", "json",
		"--locked",
	)
	require.NoError(t, err, string(out))

	var report types.InspectReport
	require.NoError(t, json.Unmarshal(out, &report), string(out))

	assert.Equal(t, "demo-service 1.4.0", report.Project)
	assert.Len(t, report.Entries, 14)

	byName := map[string]types.InspectEntry{}
	for _, entry := range report.Entries {
		byName[entry.Name] = entry
	}
	assert.True(t, byName["flask"].Eligible)
	assert.Equal(t, ">=2.0.0", byName["flask"].Relaxed)
	assert.Equal(t, "2.1.2", byName["flask"].Locked)
	assert.True(t, byName["flask"].LockedOK)

	assert.Equal(t, "5.0.2", byName["sphinx"].Locked)
	assert.False(t, byName["sphinx"].LockedOK, "drifted sphinx pin lies outside its caret range")

	assert.Equal(t, types.SourceKindGit, byName["httpx"].Source)
	assert.False(t, byName["httpx"].Eligible)
}

func TestGroupsE2E(t *testing.T) {
	root := testutil.RepoRoot(t)

	out, err := runPyrelax(t, root, "groups", "--project", "fixtures/sample")
	require.NoError(t, err, string(out))

	assert.Contains(t, string(out), "main: 10 dependencies")
	assert.Contains(t, string(out), "dev: 3 dependencies")
	assert.Contains(t, string(out), "docs: 1 dependency (optional)")
}

func TestValidateE2E(t *testing.T) {
	root := testutil.RepoRoot(t)

	out, err := runPyrelax(t, root, "validate", "--project", "fixtures/sample")
	require.NoError(t, err, string(out))
	assert.Contains(t, string(out), "demo-service is valid: 3 groups, 14 dependencies")
}

func TestConflictingFlagsExitCodeE2E(t *testing.T) {
	root := testutil.RepoRoot(t)

	out, err := runPyrelax(t, root, "relax",
		"--project", "fixtures/sample",
		"--check", "--update",
	)
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr, string(out))
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestUnknownGroupExitCodeE2E(t *testing.T) {
	root := testutil.RepoRoot(t)

	out, err := runPyrelax(t, root, "relax",
		"--project", "fixtures/sample",
		"--dry-run", "--only", "staging",
	)
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr, string(out))
	assert.Equal(t, 4, exitErr.ExitCode())
	assert.Contains(t, string(out), "group not found: staging")
}
