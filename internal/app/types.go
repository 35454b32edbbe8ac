package app

import "pyrelax/internal/types"

type RelaxRequest struct {
	ProjectDir string
	DryRun     bool
	Check      bool
	Update     bool
	Lock       bool
	Only       []string
	Without    []string
	PoetryPath string
	NoAnsi     bool
}

type RelaxResult struct {
	Mode    types.RelaxMode
	Plan    types.RelaxationPlan
	Skipped []types.SkippedDependency
	Written bool
}

type InspectRequest struct {
	ProjectDir string
	Format     types.OutputFormat
	Locked     bool
	Only       []string
	Without    []string
}

type InspectResult struct {
	Report types.InspectReport
}

type GroupsRequest struct {
	ProjectDir string
	Format     types.OutputFormat
}

type GroupsResult struct {
	Groups []types.GroupSummary
}

type ValidateRequest struct {
	ProjectDir string
}

type ValidateResult struct {
	ProjectName  string
	Groups       int
	Dependencies int
}
