package policies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyrelax/internal/types"
)

// GroupScope narrows a run to a subset of dependency groups. Only and
// Without are mutually exclusive; an empty scope selects every group.
type GroupScope struct {
	only    map[string]struct{}
	without map[string]struct{}
}

func NewGroupScope(only []string, without []string) (GroupScope, error) {
	onlySet := normalizeNames(only)
	withoutSet := normalizeNames(without)
	if len(onlySet) > 0 && len(withoutSet) > 0 {
		return GroupScope{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("conflicting flags: --only and --without are mutually exclusive")
	}
	scope := GroupScope{}
	if len(onlySet) > 0 {
		scope.only = onlySet
	}
	if len(withoutSet) > 0 {
		scope.without = withoutSet
	}
	return scope, nil
}

// Select returns the groups the scope admits, in declaration order.
// Every requested group name must exist in the manifest.
func (s GroupScope) Select(groups []types.DependencyGroup) ([]types.DependencyGroup, error) {
	declared := make(map[string]struct{}, len(groups))
	for _, group := range groups {
		declared[group.Name] = struct{}{}
	}
	var missing []string
	for name := range s.requested() {
		if _, ok := declared[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("group not found: %s", strings.Join(missing, ", ")))
	}
	var selected []types.DependencyGroup
	for _, group := range groups {
		if s.Includes(group.Name) {
			selected = append(selected, group)
		}
	}
	return selected, nil
}

// Includes reports whether a group name falls inside the scope.
func (s GroupScope) Includes(name string) bool {
	if s.only != nil {
		_, ok := s.only[name]
		return ok
	}
	if s.without != nil {
		_, ok := s.without[name]
		return !ok
	}
	return true
}

// Empty reports whether the scope admits every group.
func (s GroupScope) Empty() bool {
	return s.only == nil && s.without == nil
}

func (s GroupScope) requested() map[string]struct{} {
	if s.only != nil {
		return s.only
	}
	return s.without
}

func normalizeNames(names []string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			set[trimmed] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
