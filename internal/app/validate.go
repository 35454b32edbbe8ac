package app

import (
	"context"
	"fmt"

	"pyrelax/internal/core"
)

// Validate loads the manifest, parses every constraint, and applies the
// structural checks that do not need the resolver.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	_, manifestPath, err := resolveProject(req.ProjectDir)
	if err != nil {
		return ValidateResult{}, err
	}
	raw, err := s.Manifest.Load(manifestPath)
	if err != nil {
		return ValidateResult{}, err
	}
	manifest, err := core.NewManifestCompiler().Validate(ctx, raw)
	if err != nil {
		return ValidateResult{}, err
	}
	dependencies := 0
	for _, group := range manifest.Groups {
		dependencies += len(group.Dependencies)
	}
	result := ValidateResult{
		ProjectName:  manifest.Name,
		Groups:       len(manifest.Groups),
		Dependencies: dependencies,
	}
	message := fmt.Sprintf("%s is valid: %d groups, %d dependencies",
		manifest.Name, result.Groups, result.Dependencies)
	if err := s.Output.WriteLine(message); err != nil {
		return ValidateResult{}, err
	}
	return result, nil
}
