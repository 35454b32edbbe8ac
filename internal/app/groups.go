package app

import (
	"context"

	"pyrelax/internal/core"
	"pyrelax/internal/types"
)

// Groups lists every dependency group declared in the manifest, in
// declaration order.
func (s Service) Groups(ctx context.Context, req GroupsRequest) (GroupsResult, error) {
	_, manifestPath, err := resolveProject(req.ProjectDir)
	if err != nil {
		return GroupsResult{}, err
	}
	raw, err := s.Manifest.Load(manifestPath)
	if err != nil {
		return GroupsResult{}, err
	}
	manifest, err := core.NewManifestCompiler().Compile(ctx, raw)
	if err != nil {
		return GroupsResult{}, err
	}
	summaries := make([]types.GroupSummary, 0, len(manifest.Groups))
	for _, group := range manifest.Groups {
		summaries = append(summaries, types.GroupSummary{
			Name:     group.Name,
			Optional: group.Optional,
			Count:    len(group.Dependencies),
		})
	}
	if err := s.Output.WriteGroups(summaries, req.Format); err != nil {
		return GroupsResult{}, err
	}
	return GroupsResult{Groups: summaries}, nil
}
