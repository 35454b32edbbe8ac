package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pyrelax/internal/types"
)

type Planner struct{}

func NewPlanner() Planner {
	return Planner{}
}

// Plan walks the selected groups in declaration order and collects one
// change per eligible caret constraint. Skipped dependencies are
// returned alongside so callers can explain why a constraint was left
// alone.
func (p Planner) Plan(ctx context.Context, groups []types.DependencyGroup) (types.RelaxationPlan, []types.SkippedDependency, error) {
	var plan types.RelaxationPlan
	var skipped []types.SkippedDependency
	for _, group := range groups {
		log.Ctx(ctx).Debug().
			Str("group", group.Name).
			Int("dependencies", len(group.Dependencies)).
			Msg("scanning group for caret constraints")
		for _, dep := range group.Dependencies {
			reason, eligible := Classify(dep)
			if !eligible {
				skipped = append(skipped, types.SkippedDependency{
					Name:   dep.Name,
					Group:  group.Name,
					Reason: reason,
				})
				continue
			}
			relaxed, changed := RelaxConstraint(dep.Constraint)
			if !changed || relaxed == dep.Constraint.Raw {
				skipped = append(skipped, types.SkippedDependency{
					Name:   dep.Name,
					Group:  group.Name,
					Reason: types.SkipReasonNoCaret,
				})
				continue
			}
			if !dep.Ref.Valid() {
				return types.RelaxationPlan{}, nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg(fmt.Sprintf("no manifest location recorded for %s in group %q", dep.Name, group.Name))
			}
			plan.Changes = append(plan.Changes, types.PlannedChange{
				Name:  dep.Name,
				Group: group.Name,
				Old:   dep.Constraint.Raw,
				New:   relaxed,
				Ref:   dep.Ref,
			})
		}
	}
	log.Ctx(ctx).Debug().
		Int("changes", len(plan.Changes)).
		Int("skipped", len(skipped)).
		Msg("relaxation plan computed")
	return plan, skipped, nil
}
