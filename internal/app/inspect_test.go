package app

import (
	"encoding/json"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrelax/internal/types"
)

func inspectFixture() types.RawManifest {
	raw := rawFixture()
	raw.Groups[0].Dependencies = append(raw.Groups[0].Dependencies, types.RawDependency{
		Name:   "httpx",
		Group:  types.MainGroup,
		Source: types.SourceKindGit,
	})
	return raw
}

func TestServiceInspect(t *testing.T) {
	fixture := newServiceFixture(inspectFixture())

	result, err := fixture.service.Inspect(t.Context(), InspectRequest{ProjectDir: "/work/demo", Format: types.OutputFormatText})
	require.NoError(t, err)

	assert.Equal(t, "demo-app 0.3.0", result.Report.Project)
	want := []types.InspectEntry{
		{Name: "python", Group: "main", Source: types.SourceKindVersion, Constraint: "^3.8", CaretOrigin: true, Range: ">=3.8,<4.0", Reason: types.SkipReasonPython},
		{Name: "flask", Group: "main", Source: types.SourceKindVersion, Constraint: "^2.0.0", CaretOrigin: true, Range: ">=2.0.0,<3.0.0", Eligible: true, Relaxed: ">=2.0.0"},
		{Name: "requests", Group: "main", Source: types.SourceKindVersion, Constraint: ">=2.28.0,<3.0.0", Range: ">=2.28.0,<3.0.0", Reason: types.SkipReasonNoCaret},
		{Name: "httpx", Group: "main", Source: types.SourceKindGit, Reason: types.SkipReasonNonVersion},
		{Name: "black", Group: "dev", Source: types.SourceKindVersion, Constraint: "^22.1.0", CaretOrigin: true, Range: ">=22.1.0,<23.0.0", Eligible: true, Relaxed: ">=22.1.0"},
	}
	if diff := cmp.Diff(want, result.Report.Entries); diff != "" {
		t.Fatalf("unexpected report entries (-want +got):\n%s", diff)
	}

	// Without --locked the lockfile is never read.
	assert.Empty(t, fixture.lockfile.paths)
}

func TestServiceInspectLocked(t *testing.T) {
	fixture := newServiceFixture(inspectFixture())
	fixture.lockfile.pins = map[string]string{
		"flask": "2.1.2",
		"black": "21.0",
		"httpx": "0.23.0",
	}

	result, err := fixture.service.Inspect(t.Context(), InspectRequest{ProjectDir: "/work/demo", Format: types.OutputFormatText, Locked: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"/work/demo/poetry.lock"}, fixture.lockfile.paths)

	byName := map[string]types.InspectEntry{}
	for _, entry := range result.Report.Entries {
		byName[entry.Name] = entry
	}

	assert.Equal(t, "2.1.2", byName["flask"].Locked)
	assert.True(t, byName["flask"].LockedOK)

	assert.Equal(t, "21.0", byName["black"].Locked)
	assert.False(t, byName["black"].LockedOK)

	// Non-version sources carry the pin but skip the range check.
	assert.Equal(t, "0.23.0", byName["httpx"].Locked)
	assert.True(t, byName["httpx"].LockedOK)

	assert.Empty(t, byName["python"].Locked)
	assert.False(t, byName["python"].LockedOK)
}

func TestServiceInspectLockedMissingLockfile(t *testing.T) {
	fixture := newServiceFixture(inspectFixture())
	fixture.lockfile.err = errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg("lockfile not found")

	_, err := fixture.service.Inspect(t.Context(), InspectRequest{ProjectDir: "/work/demo", Locked: true})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestServiceInspectOnlyGroup(t *testing.T) {
	fixture := newServiceFixture(inspectFixture())

	result, err := fixture.service.Inspect(t.Context(), InspectRequest{ProjectDir: "/work/demo", Only: []string{"dev"}})
	require.NoError(t, err)
	require.Len(t, result.Report.Entries, 1)
	assert.Equal(t, "black", result.Report.Entries[0].Name)
}

func TestServiceInspectConflictingGroupFlags(t *testing.T) {
	fixture := newServiceFixture(inspectFixture())

	_, err := fixture.service.Inspect(t.Context(), InspectRequest{ProjectDir: "/work/demo", Only: []string{"dev"}, Without: []string{"main"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting flags")
}

func TestServiceInspectJSONOutput(t *testing.T) {
	fixture := newServiceFixture(inspectFixture())

	result, err := fixture.service.Inspect(t.Context(), InspectRequest{ProjectDir: "/work/demo", Format: types.OutputFormatJSON})
	require.NoError(t, err)

	var decoded types.InspectReport
	require.NoError(t, json.Unmarshal(fixture.out.Bytes(), &decoded))
	if diff := cmp.Diff(result.Report, decoded); diff != "" {
		t.Fatalf("printed report differs from returned report (-want +got):\n%s", diff)
	}
}
