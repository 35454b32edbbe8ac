package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"pyrelax/internal/types"
)

// opTokens is the ordered list of clause operators tried during
// parsing. Longer tokens must precede shorter ones to avoid false
// matches (e.g. ">=" before ">", "~=" before "~").
var opTokens = []types.ClauseOp{
	types.ClauseOpGte,
	types.ClauseOpLte,
	types.ClauseOpCompat,
	types.ClauseOpNe,
	types.ClauseOpEq2,
	types.ClauseOpEq,
	types.ClauseOpGt,
	types.ClauseOpLt,
	types.ClauseOpCaret,
	types.ClauseOpTilde,
}

var (
	orSeparatorPattern = regexp.MustCompile(`\s*\|\|?\s*`)
	hyphenRangePattern = regexp.MustCompile(`\s+-\s+`)
)

// ParseConstraint parses a dependency constraint expression into its
// clause and separator tokens. Separator bytes are kept verbatim so the
// expression can be reassembled with only the rewritten clauses
// changed. Leading and trailing whitespace and trailing commas are not
// part of any token.
func ParseConstraint(raw string) (types.VersionConstraint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return types.VersionConstraint{}, parseError(raw, "empty expression")
	}
	constraint := types.VersionConstraint{Raw: raw}

	separators := orSeparatorPattern.FindAllStringIndex(trimmed, -1)
	cursor := 0
	for _, match := range separators {
		if match[0] <= cursor {
			return types.VersionConstraint{}, parseError(raw, "empty union branch")
		}
		tokens, err := tokenizeBranch(trimmed[cursor:match[0]])
		if err != nil {
			return types.VersionConstraint{}, parseError(raw, err.Error())
		}
		constraint.Tokens = append(constraint.Tokens, tokens...)
		constraint.Tokens = append(constraint.Tokens, types.ConstraintToken{
			Kind: types.TokenKindSeparator,
			Text: trimmed[match[0]:match[1]],
			Or:   true,
		})
		cursor = match[1]
	}
	if cursor >= len(trimmed) {
		return types.VersionConstraint{}, parseError(raw, "empty union branch")
	}
	tokens, err := tokenizeBranch(trimmed[cursor:])
	if err != nil {
		return types.VersionConstraint{}, parseError(raw, err.Error())
	}
	constraint.Tokens = append(constraint.Tokens, tokens...)

	for _, token := range constraint.Tokens {
		if token.Kind == types.TokenKindClause && token.Clause.Op == types.ClauseOpCaret {
			constraint.CaretOrigin = true
			break
		}
	}
	constraint.LowerBound, constraint.UpperBound = deriveBounds(constraint.Tokens, newVersionCache())
	return constraint, nil
}

func parseError(raw string, detail string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid constraint %q: %s", raw, detail))
}

// tokenizeBranch splits one union branch into clause and separator
// tokens. Trailing commas are tolerated and dropped.
func tokenizeBranch(branch string) ([]types.ConstraintToken, error) {
	body := strings.TrimSpace(branch)
	body = strings.TrimRight(body, ",")
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty clause")
	}
	var tokens []types.ConstraintToken
	for _, segment := range splitAndSegments(body) {
		if segment.separator {
			tokens = append(tokens, types.ConstraintToken{
				Kind: types.TokenKindSeparator,
				Text: segment.text,
			})
			continue
		}
		clause, err := parseClause(segment.text)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, types.ConstraintToken{
			Kind:   types.TokenKindClause,
			Text:   segment.text,
			Clause: clause,
		})
	}
	return tokens, nil
}

type andSegment struct {
	text      string
	separator bool
}

// splitAndSegments splits a conjunction into alternating clause and
// separator segments. A run of spaces or a comma separates clauses only
// when it does not sit inside a single clause: runs following an
// operator belong to that clause (">= 1.2"), hyphen-adjacent runs glue
// pre-release forms, and a trailing run stays on its clause.
func splitAndSegments(body string) []andSegment {
	var segments []andSegment
	start := 0
	i := 0
	for i < len(body) {
		c := body[i]
		if c != ' ' && c != ',' {
			i++
			continue
		}
		runEnd := i
		commaIdx := -1
		for runEnd < len(body) && (body[runEnd] == ' ' || body[runEnd] == ',') {
			if body[runEnd] == ',' && commaIdx < 0 {
				commaIdx = runEnd
			}
			runEnd++
		}
		sepEnd := separatorEnd(body, i, commaIdx, runEnd)
		if sepEnd < 0 {
			i = runEnd
			continue
		}
		segments = append(segments, andSegment{text: body[start:i]})
		segments = append(segments, andSegment{text: body[i:sepEnd], separator: true})
		start = sepEnd
		i = sepEnd
	}
	segments = append(segments, andSegment{text: body[start:]})
	return segments
}

// separatorEnd reports where the separator beginning at i ends, or -1
// when the run is clause-internal. The core of a separator is its comma
// when one is present, otherwise the last space of the run.
func separatorEnd(body string, i int, commaIdx int, runEnd int) int {
	if i == 0 {
		return -1
	}
	switch body[i-1] {
	case '~', '=', '>', '<', ' ', ',':
		return -1
	}
	coreIdx := commaIdx
	if coreIdx < 0 {
		coreIdx = runEnd - 1
	}
	if coreIdx == i && body[i-1] == '-' {
		return -1
	}
	if coreIdx+1 < len(body) && body[coreIdx+1] == '-' {
		return -1
	}
	end := coreIdx + 1
	for end < runEnd && body[end] == ' ' {
		end++
	}
	if end < runEnd {
		// a second comma inside the run
		return -1
	}
	if end >= len(body) || body[end] == ',' {
		return -1
	}
	return end
}

// parseClause parses one comparison. The version literal is validated
// as PEP 440; wildcard suffixes are allowed on equality and exclusion
// operators, and operator-less hyphen ranges are a single clause.
func parseClause(text string) (types.Clause, error) {
	clause := types.Clause{Raw: text}
	body := strings.TrimSpace(text)
	if body == "" {
		return clause, fmt.Errorf("empty clause")
	}
	for _, op := range opTokens {
		if strings.HasPrefix(body, string(op)) {
			clause.Op = op
			clause.Version = strings.TrimSpace(body[len(op):])
			break
		}
	}
	if clause.Op == types.ClauseOpNone {
		if hyphenRangePattern.MatchString(body) {
			return parseRangeClause(clause, body)
		}
		clause.Version = body
	}

	if wild, prefix, err := wildcardForm(clause.Version); wild {
		if err != nil {
			return clause, err
		}
		switch clause.Op {
		case types.ClauseOpNone, types.ClauseOpEq, types.ClauseOpEq2:
			clause.Op = types.ClauseOpWildcard
			clause.Version = prefix
			return clause, nil
		case types.ClauseOpNe:
			if prefix == "" {
				return clause, fmt.Errorf("exclusion needs a version prefix in %q", body)
			}
			clause.Version = prefix + ".*"
			return clause, nil
		default:
			return clause, fmt.Errorf("wildcard not allowed after %q in %q", clause.Op, body)
		}
	}

	if clause.Version == "" {
		return clause, fmt.Errorf("missing version after %q", clause.Op)
	}
	if _, err := pep440.Parse(clause.Version); err != nil {
		return clause, fmt.Errorf("malformed version %q", clause.Version)
	}
	if clause.Op == types.ClauseOpCompat {
		components, err := releaseComponents(clause.Version)
		if err != nil || len(components) < 2 {
			return clause, fmt.Errorf("compatible-release requires at least two components in %q", body)
		}
	}
	return clause, nil
}

// parseRangeClause validates a hyphenated range. Both endpoints must be
// concrete versions.
func parseRangeClause(clause types.Clause, body string) (types.Clause, error) {
	from, to, ok := splitHyphenRange(body)
	if !ok || from == "" || to == "" || hyphenRangePattern.MatchString(to) {
		return clause, fmt.Errorf("malformed range %q", body)
	}
	if _, err := pep440.Parse(from); err != nil {
		return clause, fmt.Errorf("malformed version %q", from)
	}
	if _, err := pep440.Parse(to); err != nil {
		return clause, fmt.Errorf("malformed version %q", to)
	}
	clause.Op = types.ClauseOpRange
	clause.Version = body
	return clause, nil
}

// splitHyphenRange splits "X - Y" into its endpoints.
func splitHyphenRange(version string) (string, string, bool) {
	loc := hyphenRangePattern.FindStringIndex(version)
	if loc == nil {
		return "", "", false
	}
	return version[:loc[0]], version[loc[1]:], true
}

// wildcardForm reports whether the version literal is a wildcard form
// and returns its numeric prefix. "*", "x" and "X" match everything;
// "1.2.*" yields "1.2".
func wildcardForm(version string) (bool, string, error) {
	switch version {
	case "*", "x", "X":
		return true, "", nil
	}
	trimmed := version
	switch {
	case strings.HasSuffix(trimmed, ".*"), strings.HasSuffix(trimmed, ".x"), strings.HasSuffix(trimmed, ".X"):
		trimmed = trimmed[:len(trimmed)-2]
	case strings.ContainsAny(trimmed, "*"):
		return true, "", fmt.Errorf("misplaced wildcard in %q", version)
	default:
		return false, "", nil
	}
	if strings.ContainsAny(trimmed, "*xX") {
		return true, "", fmt.Errorf("misplaced wildcard in %q", version)
	}
	if _, err := pep440.Parse(trimmed); err != nil {
		return true, "", fmt.Errorf("malformed version %q", version)
	}
	return true, trimmed, nil
}
