package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"pyrelax/internal/types"
)

// versionCache memoizes parsed PEP 440 versions and specifier sets to
// avoid repeated parsing during bound derivation and lock checks.
type versionCache struct {
	pep  map[string]pep440.Version
	spec map[string]pep440.Specifiers
}

func newVersionCache() *versionCache {
	return &versionCache{
		pep:  map[string]pep440.Version{},
		spec: map[string]pep440.Specifiers{},
	}
}

func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

func (c *versionCache) pepSpec(value string) (pep440.Specifiers, error) {
	if parsed, ok := c.spec[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.NewSpecifiers(value)
	if err != nil {
		return pep440.Specifiers{}, err
	}
	c.spec[value] = parsed
	return parsed, nil
}

// compare returns -1, 0, or 1 comparing two version strings. Returns 0
// on parse errors.
func (c *versionCache) compare(a string, b string) int {
	v1, err := c.pepVersion(a)
	if err != nil {
		return 0
	}
	v2, err := c.pepVersion(b)
	if err != nil {
		return 0
	}
	return v1.Compare(v2)
}

// VersionAtLeast reports whether version is greater than or equal to
// minimum under PEP 440 ordering.
func VersionAtLeast(version string, minimum string) (bool, error) {
	v, err := pep440.Parse(strings.TrimSpace(version))
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version: %s", version)).
			WithCause(err)
	}
	m, err := pep440.Parse(minimum)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version: %s", minimum)).
			WithCause(err)
	}
	return v.Compare(m) >= 0, nil
}

// releaseComponents extracts the numeric release segments from a version
// literal as written. "1.2" yields [1 2], not [1 2 0]: the written
// component count decides how caret and tilde bounds are rendered.
// Pre-release and local suffixes are ignored.
func releaseComponents(version string) ([]int, error) {
	trimmed := strings.TrimSpace(version)
	trimmed = strings.TrimPrefix(trimmed, "v")
	if trimmed == "" {
		return nil, fmt.Errorf("empty version")
	}
	var components []int
	for i, segment := range strings.Split(trimmed, ".") {
		digits := leadingDigits(segment)
		if digits == "" {
			if i == 0 {
				return nil, fmt.Errorf("no numeric release component in %q", version)
			}
			break
		}
		value, err := strconv.Atoi(digits)
		if err != nil {
			return nil, err
		}
		components = append(components, value)
		if digits != segment {
			break
		}
	}
	return components, nil
}

func leadingDigits(segment string) string {
	end := 0
	for end < len(segment) && segment[end] >= '0' && segment[end] <= '9' {
		end++
	}
	return segment[:end]
}

func renderComponents(components []int) string {
	parts := make([]string, len(components))
	for i, component := range components {
		parts[i] = strconv.Itoa(component)
	}
	return strings.Join(parts, ".")
}

// nextBreakingVersion computes the exclusive upper bound implied by a
// caret constraint: the leftmost non-zero component is bumped and the
// rest are zeroed. "1.2.3" -> "2.0.0", "0.2.3" -> "0.3.0", "0.0.3" ->
// "0.0.4", "0" -> "1".
func nextBreakingVersion(version string) (string, error) {
	components, err := releaseComponents(version)
	if err != nil {
		return "", err
	}
	bumped := make([]int, len(components))
	copy(bumped, components)
	pivot := len(bumped) - 1
	for i, component := range bumped {
		if component != 0 {
			pivot = i
			break
		}
	}
	bumped[pivot]++
	for i := pivot + 1; i < len(bumped); i++ {
		bumped[i] = 0
	}
	return renderComponents(bumped), nil
}

// nextMinorVersion computes the exclusive upper bound implied by a tilde
// constraint: the second component is bumped when present, otherwise the
// first. "1.2.3" -> "1.3.0", "1.2" -> "1.3", "1" -> "2".
func nextMinorVersion(version string) (string, error) {
	components, err := releaseComponents(version)
	if err != nil {
		return "", err
	}
	bumped := make([]int, len(components))
	copy(bumped, components)
	pivot := 0
	if len(bumped) >= 2 {
		pivot = 1
	}
	bumped[pivot]++
	for i := pivot + 1; i < len(bumped); i++ {
		bumped[i] = 0
	}
	return renderComponents(bumped), nil
}

// nextCompatibleVersion computes the exclusive upper bound implied by a
// PEP 440 compatible-release clause: the second-to-last written
// component is bumped. "1.2.3" -> "1.3.0", "1.2" -> "2.0".
func nextCompatibleVersion(version string) (string, error) {
	components, err := releaseComponents(version)
	if err != nil {
		return "", err
	}
	if len(components) < 2 {
		return "", fmt.Errorf("compatible-release requires at least two components: %s", version)
	}
	bumped := make([]int, len(components))
	copy(bumped, components)
	pivot := len(bumped) - 2
	bumped[pivot]++
	for i := pivot + 1; i < len(bumped); i++ {
		bumped[i] = 0
	}
	return renderComponents(bumped), nil
}

// clauseBounds returns the inclusive lower and exclusive-or-inclusive
// upper bound a single clause contributes. Either side may be empty.
func clauseBounds(clause types.Clause) (string, string, error) {
	switch clause.Op {
	case types.ClauseOpCaret:
		upper, err := nextBreakingVersion(clause.Version)
		if err != nil {
			return "", "", err
		}
		return clause.Version, upper, nil
	case types.ClauseOpTilde:
		upper, err := nextMinorVersion(clause.Version)
		if err != nil {
			return "", "", err
		}
		return clause.Version, upper, nil
	case types.ClauseOpCompat:
		upper, err := nextCompatibleVersion(clause.Version)
		if err != nil {
			return "", "", err
		}
		return clause.Version, upper, nil
	case types.ClauseOpWildcard:
		if clause.Version == "" {
			return "", "", nil
		}
		upper, err := nextMinorVersionFromPrefix(clause.Version)
		if err != nil {
			return "", "", err
		}
		return clause.Version, upper, nil
	case types.ClauseOpRange:
		from, to, ok := splitHyphenRange(clause.Version)
		if !ok {
			return "", "", fmt.Errorf("malformed range %q", clause.Version)
		}
		upper, err := hyphenRangeUpper(to)
		if err != nil {
			return "", "", err
		}
		return from, upper, nil
	case types.ClauseOpEq, types.ClauseOpEq2, types.ClauseOpNone:
		return clause.Version, clause.Version, nil
	case types.ClauseOpGte, types.ClauseOpGt:
		return clause.Version, "", nil
	case types.ClauseOpLte, types.ClauseOpLt:
		return "", clause.Version, nil
	case types.ClauseOpNe:
		return "", "", nil
	default:
		return "", "", fmt.Errorf("unsupported clause operator %q", clause.Op)
	}
}

// nextMinorVersionFromPrefix bumps the last written component of a
// wildcard prefix. "1.2" (from "1.2.*") -> "1.3".
func nextMinorVersionFromPrefix(prefix string) (string, error) {
	components, err := releaseComponents(prefix)
	if err != nil {
		return "", err
	}
	bumped := make([]int, len(components))
	copy(bumped, components)
	bumped[len(bumped)-1]++
	return renderComponents(bumped), nil
}

// hyphenRangeUpper resolves the upper endpoint of a hyphenated range. A
// partially written endpoint like "2.0" covers everything below "2.1";
// a fully written endpoint is itself the (inclusive) bound.
func hyphenRangeUpper(to string) (string, error) {
	components, err := releaseComponents(to)
	if err != nil {
		return "", err
	}
	if len(components) < 3 {
		return nextMinorVersionFromPrefix(to)
	}
	return to, nil
}

// deriveBounds folds per-clause bounds into the bounds of the whole
// expression. Clauses joined by AND intersect; OR branches union. An OR
// branch without an upper bound makes the whole expression unbounded.
func deriveBounds(tokens []types.ConstraintToken, cache *versionCache) (string, string) {
	type branch struct {
		lower string
		upper string
	}
	var branches []branch
	current := branch{}
	started := false
	flush := func() {
		if started {
			branches = append(branches, current)
		}
		current = branch{}
		started = false
	}
	for _, token := range tokens {
		if token.Kind == types.TokenKindSeparator {
			if token.Or {
				flush()
			}
			continue
		}
		started = true
		lower, upper, err := clauseBounds(token.Clause)
		if err != nil {
			continue
		}
		if lower != "" && (current.lower == "" || cache.compare(lower, current.lower) > 0) {
			current.lower = lower
		}
		if upper != "" && (current.upper == "" || cache.compare(upper, current.upper) < 0) {
			current.upper = upper
		}
	}
	flush()
	if len(branches) == 0 {
		return "", ""
	}
	lower := branches[0].lower
	upper := branches[0].upper
	bounded := upper != ""
	for _, b := range branches[1:] {
		if b.lower == "" || (lower != "" && cache.compare(b.lower, lower) < 0) {
			lower = b.lower
		}
		if b.upper == "" {
			bounded = false
		} else if bounded && cache.compare(b.upper, upper) > 0 {
			upper = b.upper
		}
	}
	if !bounded {
		upper = ""
	}
	return lower, upper
}

// specifierForClause renders a clause as a PEP 440 specifier fragment.
func specifierForClause(clause types.Clause) (string, error) {
	switch clause.Op {
	case types.ClauseOpCaret:
		upper, err := nextBreakingVersion(clause.Version)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(">=%s,<%s", clause.Version, upper), nil
	case types.ClauseOpTilde:
		upper, err := nextMinorVersion(clause.Version)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(">=%s,<%s", clause.Version, upper), nil
	case types.ClauseOpWildcard:
		if clause.Version == "" {
			return "", nil
		}
		return fmt.Sprintf("==%s.*", clause.Version), nil
	case types.ClauseOpRange:
		from, to, ok := splitHyphenRange(clause.Version)
		if !ok {
			return "", fmt.Errorf("malformed range %q", clause.Version)
		}
		components, err := releaseComponents(to)
		if err != nil {
			return "", err
		}
		if len(components) < 3 {
			upper, err := nextMinorVersionFromPrefix(to)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(">=%s,<%s", from, upper), nil
		}
		return fmt.Sprintf(">=%s,<=%s", from, to), nil
	case types.ClauseOpEq, types.ClauseOpNone:
		return "==" + clause.Version, nil
	case types.ClauseOpEq2, types.ClauseOpNe, types.ClauseOpCompat,
		types.ClauseOpGte, types.ClauseOpLte, types.ClauseOpGt, types.ClauseOpLt:
		return string(clause.Op) + clause.Version, nil
	default:
		return "", fmt.Errorf("unsupported clause operator %q", clause.Op)
	}
}

// CheckVersion reports whether a concrete version satisfies the
// constraint expression. OR branches are checked independently; a
// version satisfying any branch satisfies the expression. A bare
// wildcard branch matches every version.
func CheckVersion(constraint types.VersionConstraint, version string) (bool, error) {
	cache := newVersionCache()
	parsed, err := cache.pepVersion(strings.TrimSpace(version))
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version: %s", version)).
			WithCause(err)
	}
	branchSatisfied := func(fragments []string) bool {
		if len(fragments) == 0 {
			return true
		}
		spec, err := cache.pepSpec(strings.Join(fragments, ","))
		if err != nil {
			return false
		}
		return spec.Check(parsed)
	}
	var fragments []string
	sawClause := false
	for _, token := range constraint.Tokens {
		if token.Kind == types.TokenKindSeparator {
			if token.Or {
				if sawClause && branchSatisfied(fragments) {
					return true, nil
				}
				fragments = nil
				sawClause = false
			}
			continue
		}
		sawClause = true
		fragment, err := specifierForClause(token.Clause)
		if err != nil {
			return false, err
		}
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
	}
	if !sawClause {
		return true, nil
	}
	return branchSatisfied(fragments), nil
}

// RangeString renders the effective bounds of a constraint as a PEP 440
// style range for display. An unbounded expression renders only its
// lower bound.
func RangeString(constraint types.VersionConstraint) string {
	if constraint.LowerBound == "" && constraint.UpperBound == "" {
		return "*"
	}
	if constraint.UpperBound == "" {
		return ">=" + constraint.LowerBound
	}
	if constraint.LowerBound == "" {
		return "<" + constraint.UpperBound
	}
	if constraint.LowerBound == constraint.UpperBound {
		return "==" + constraint.LowerBound
	}
	return fmt.Sprintf(">=%s,<%s", constraint.LowerBound, constraint.UpperBound)
}
