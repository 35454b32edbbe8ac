package core

import (
	"context"
	"fmt"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pyrelax/internal/types"
)

// ManifestCompiler turns a raw manifest into one with every version
// constraint parsed. The first malformed constraint aborts the run;
// nothing is ever rewritten from a partially understood manifest.
type ManifestCompiler struct{}

func NewManifestCompiler() ManifestCompiler {
	return ManifestCompiler{}
}

func (c ManifestCompiler) Compile(ctx context.Context, raw types.RawManifest) (types.Manifest, error) {
	assert.NotEmpty(ctx, raw.Path, "manifest path must be set")

	manifest := types.Manifest{
		Path:    raw.Path,
		Name:    raw.Name,
		Version: raw.Version,
	}
	for _, rawGroup := range raw.Groups {
		group := types.DependencyGroup{
			Name:     rawGroup.Name,
			Optional: rawGroup.Optional,
		}
		for _, rawDep := range rawGroup.Dependencies {
			dep := types.Dependency{
				Name:   rawDep.Name,
				Group:  rawGroup.Name,
				Source: rawDep.Source,
				Python: rawDep.Python,
				Ref:    rawDep.Ref,
			}
			if rawDep.Source == types.SourceKindVersion {
				parsed, err := ParseConstraint(rawDep.Constraint)
				if err != nil {
					return types.Manifest{}, errbuilder.New().
						WithCode(errbuilder.CodeInvalidArgument).
						WithMsg(fmt.Sprintf("invalid constraint for %s in group %q", rawDep.Name, rawGroup.Name)).
						WithCause(err)
				}
				dep.Constraint = parsed
			}
			group.Dependencies = append(group.Dependencies, dep)
		}
		manifest.Groups = append(manifest.Groups, group)
	}

	log.Ctx(ctx).Debug().
		Str("manifest", raw.Path).
		Int("groups", len(manifest.Groups)).
		Msg("manifest compiled")
	return manifest, nil
}

// Validate compiles the manifest and applies the structural checks that
// do not need the resolver: a project name, non-empty group and
// dependency names, and no duplicate groups.
func (c ManifestCompiler) Validate(ctx context.Context, raw types.RawManifest) (types.Manifest, error) {
	assert.NotEmpty(ctx, raw.Path, "manifest path must be set")

	if strings.TrimSpace(raw.Name) == "" {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project name must be set")
	}
	manifest, err := c.Compile(ctx, raw)
	if err != nil {
		return types.Manifest{}, err
	}
	seen := make(map[string]struct{}, len(manifest.Groups))
	for _, group := range manifest.Groups {
		if strings.TrimSpace(group.Name) == "" {
			return types.Manifest{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("dependency group name must not be empty")
		}
		if _, dup := seen[group.Name]; dup {
			return types.Manifest{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("duplicate dependency group %q", group.Name))
		}
		seen[group.Name] = struct{}{}
		for _, dep := range group.Dependencies {
			if strings.TrimSpace(dep.Name) == "" {
				return types.Manifest{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("dependency in group %q has no name", group.Name))
			}
		}
	}

	log.Ctx(ctx).Debug().Str("manifest", raw.Path).Msg("manifest validated")
	return manifest, nil
}
