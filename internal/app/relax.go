package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pyrelax/internal/adapters"
	"pyrelax/internal/core"
	"pyrelax/internal/policies"
	"pyrelax/internal/ports"
	"pyrelax/internal/types"
)

// Relax computes the relaxation plan for a project and carries it as
// far as the requested mode allows. The solver check always runs before
// the manifest is rewritten; a dry run stops before the solver, and
// check mode stops after it.
func (s Service) Relax(ctx context.Context, req RelaxRequest) (RelaxResult, error) {
	mode, err := resolveMode(req)
	if err != nil {
		return RelaxResult{}, err
	}
	scope, err := policies.NewGroupScope(req.Only, req.Without)
	if err != nil {
		return RelaxResult{}, err
	}
	projectDir, manifestPath, err := resolveProject(req.ProjectDir)
	if err != nil {
		return RelaxResult{}, err
	}
	log.Ctx(ctx).Debug().
		Str("mode", string(mode)).
		Str("manifest", manifestPath).
		Msg("relax run starting")

	raw, err := s.Manifest.Load(manifestPath)
	if err != nil {
		return RelaxResult{}, err
	}
	manifest, err := core.NewManifestCompiler().Compile(ctx, raw)
	if err != nil {
		return RelaxResult{}, err
	}
	selected, err := scope.Select(manifest.Groups)
	if err != nil {
		return RelaxResult{}, err
	}
	for _, group := range selected {
		if len(group.Dependencies) == 0 {
			if err := s.Output.WriteLine(fmt.Sprintf("No dependencies found in group '%s'.", group.Name)); err != nil {
				return RelaxResult{}, err
			}
		}
	}
	plan, skipped, err := core.NewPlanner().Plan(ctx, selected)
	if err != nil {
		return RelaxResult{}, err
	}
	result := RelaxResult{Mode: mode, Plan: plan, Skipped: skipped}

	if plan.Empty() {
		if err := s.Output.WriteLine("No dependency constraints to relax."); err != nil {
			return result, err
		}
		return result, nil
	}
	if err := s.Output.WritePlan(plan); err != nil {
		return result, err
	}
	if mode == types.RelaxModeDryRun {
		if err := s.Output.WriteLine("Skipped update of config file due to dry-run flag."); err != nil {
			return result, err
		}
		return result, nil
	}

	rendered, err := s.Manifest.Render(manifestPath, plan.Changes)
	if err != nil {
		return result, err
	}
	if err := s.Output.WriteLine("Checking new dependencies can be solved..."); err != nil {
		return result, err
	}
	resolver := s.resolverFor(req)
	stagedDir, cleanup, err := s.Staging.Stage(projectDir, rendered)
	if err != nil {
		return result, err
	}
	defer cleanup()
	checkOutput, err := resolver.Check(ctx, stagedDir)
	if err != nil {
		// The solver's own conflict report is the diagnostic; pass it
		// through untouched.
		if text := strings.TrimSpace(checkOutput); text != "" {
			_ = s.Output.WriteLine(text)
		}
		return result, err
	}
	if err := s.Output.WriteLine("Dependency check successful."); err != nil {
		return result, err
	}
	if mode == types.RelaxModeCheck {
		return result, nil
	}

	if err := s.Manifest.Write(manifestPath, rendered); err != nil {
		return result, err
	}
	result.Written = true
	if err := s.Output.WriteUpdated(plan); err != nil {
		return result, err
	}
	if err := s.Output.WriteLine("Updated config file with relaxed constraints."); err != nil {
		return result, err
	}

	switch mode {
	case types.RelaxModeUpdate:
		if err := s.Output.WriteLine("Running Poetry package installer..."); err != nil {
			return result, err
		}
		if output, err := resolver.Update(ctx, projectDir, plan.Names()); err != nil {
			if text := strings.TrimSpace(output); text != "" {
				_ = s.Output.WriteLine(text)
			}
			return result, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("post-write update failed").
				WithCause(err)
		}
	case types.RelaxModeLock:
		if output, err := resolver.Lock(ctx, projectDir); err != nil {
			if text := strings.TrimSpace(output); text != "" {
				_ = s.Output.WriteLine(text)
			}
			return result, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("post-write lock failed").
				WithCause(err)
		}
	}
	return result, nil
}

// resolveMode folds the mode flags into a single mode. A dry run
// outranks everything else; check cannot be combined with the modes
// that change installed state.
func resolveMode(req RelaxRequest) (types.RelaxMode, error) {
	if req.Check && (req.Update || req.Lock) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("conflicting flags: --check cannot be combined with --update or --lock")
	}
	switch {
	case req.DryRun:
		return types.RelaxModeDryRun, nil
	case req.Check:
		return types.RelaxModeCheck, nil
	case req.Update:
		return types.RelaxModeUpdate, nil
	case req.Lock:
		return types.RelaxModeLock, nil
	}
	return types.RelaxModeWrite, nil
}

func (s Service) resolverFor(req RelaxRequest) ports.ResolverPort {
	if req.PoetryPath == "" && !req.NoAnsi {
		return s.Resolver
	}
	return adapters.NewPoetryCLIAdapter(req.PoetryPath, req.NoAnsi)
}

func resolveProject(projectDir string) (string, string, error) {
	dir := strings.TrimSpace(projectDir)
	if dir == "" {
		dir = "."
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid project directory").
			WithCause(err)
	}
	return absDir, filepath.Join(absDir, "pyproject.toml"), nil
}
