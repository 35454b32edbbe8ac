package types

// PlannedChange is one constraint rewrite: the dependency keeps its lower
// bound and loses its caret-derived upper bound.
type PlannedChange struct {
	Name  string      `json:"name" yaml:"name"`
	Group string      `json:"group" yaml:"group"`
	Old   string      `json:"old" yaml:"old"`
	New   string      `json:"new" yaml:"new"`
	Ref   ManifestRef `json:"-" yaml:"-"`
}

// RelaxationPlan is the full set of rewrites for one invocation. It is
// derived fresh from the manifest each run and consumed exactly once.
type RelaxationPlan struct {
	Changes []PlannedChange `json:"changes" yaml:"changes"`
}

func (p RelaxationPlan) Empty() bool {
	return len(p.Changes) == 0
}

// Names returns the distinct dependency names in the plan, in order of
// first appearance.
func (p RelaxationPlan) Names() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, change := range p.Changes {
		if _, ok := seen[change.Name]; ok {
			continue
		}
		seen[change.Name] = struct{}{}
		names = append(names, change.Name)
	}
	return names
}

type SkippedDependency struct {
	Name   string     `json:"name" yaml:"name"`
	Group  string     `json:"group" yaml:"group"`
	Reason SkipReason `json:"reason" yaml:"reason"`
}

type InspectEntry struct {
	Name        string     `json:"name" yaml:"name"`
	Group       string     `json:"group" yaml:"group"`
	Source      SourceKind `json:"source" yaml:"source"`
	Constraint  string     `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	CaretOrigin bool       `json:"caret_origin" yaml:"caret_origin"`
	Eligible    bool       `json:"eligible" yaml:"eligible"`
	Reason      SkipReason `json:"reason,omitempty" yaml:"reason,omitempty"`
	Relaxed     string     `json:"relaxed,omitempty" yaml:"relaxed,omitempty"`
	Range       string     `json:"range,omitempty" yaml:"range,omitempty"`
	Locked      string     `json:"locked,omitempty" yaml:"locked,omitempty"`
	LockedOK    bool       `json:"locked_ok,omitempty" yaml:"locked_ok,omitempty"`
}

type InspectReport struct {
	Project string         `json:"project" yaml:"project"`
	Entries []InspectEntry `json:"entries" yaml:"entries"`
}

type GroupSummary struct {
	Name     string `json:"name" yaml:"name"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Count    int    `json:"count" yaml:"count"`
}
