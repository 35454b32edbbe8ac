package app

import (
	"context"
	"path/filepath"

	"pyrelax/internal/core"
	"pyrelax/internal/policies"
	"pyrelax/internal/shared"
	"pyrelax/internal/types"
)

// Inspect reports every dependency in scope: its constraint, the
// effective version range, whether relaxation would touch it, and
// optionally how the locked version relates to the declared range.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	scope, err := policies.NewGroupScope(req.Only, req.Without)
	if err != nil {
		return InspectResult{}, err
	}
	projectDir, manifestPath, err := resolveProject(req.ProjectDir)
	if err != nil {
		return InspectResult{}, err
	}
	raw, err := s.Manifest.Load(manifestPath)
	if err != nil {
		return InspectResult{}, err
	}
	manifest, err := core.NewManifestCompiler().Compile(ctx, raw)
	if err != nil {
		return InspectResult{}, err
	}
	selected, err := scope.Select(manifest.Groups)
	if err != nil {
		return InspectResult{}, err
	}

	var pinned map[string]string
	if req.Locked {
		pinned, err = s.Lockfile.PinnedVersions(filepath.Join(projectDir, "poetry.lock"))
		if err != nil {
			return InspectResult{}, err
		}
	}

	report := types.InspectReport{Project: projectLabel(manifest)}
	for _, group := range selected {
		for _, dep := range group.Dependencies {
			report.Entries = append(report.Entries, inspectEntry(dep, group.Name, pinned))
		}
	}
	if err := s.Output.WriteInspect(report, req.Format); err != nil {
		return InspectResult{}, err
	}
	return InspectResult{Report: report}, nil
}

func inspectEntry(dep types.Dependency, group string, pinned map[string]string) types.InspectEntry {
	entry := types.InspectEntry{
		Name:   dep.Name,
		Group:  group,
		Source: dep.Source,
	}
	if dep.Source == types.SourceKindVersion {
		entry.Constraint = dep.Constraint.Raw
		entry.CaretOrigin = dep.Constraint.CaretOrigin
		entry.Range = core.RangeString(dep.Constraint)
	}
	reason, eligible := core.Classify(dep)
	entry.Eligible = eligible
	entry.Reason = reason
	if eligible {
		entry.Relaxed, _ = core.RelaxConstraint(dep.Constraint)
	}
	if pinned != nil {
		if version, ok := pinned[shared.NormalizePackageName(dep.Name)]; ok {
			entry.Locked = version
			entry.LockedOK = true
			if dep.Source == types.SourceKindVersion {
				if satisfied, err := core.CheckVersion(dep.Constraint, version); err == nil {
					entry.LockedOK = satisfied
				}
			}
		}
	}
	return entry
}

func projectLabel(manifest types.Manifest) string {
	if manifest.Name == "" {
		return ""
	}
	if manifest.Version == "" {
		return manifest.Name
	}
	return manifest.Name + " " + manifest.Version
}
