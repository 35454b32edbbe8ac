package core

import (
	"strings"

	"pyrelax/internal/types"
)

// RelaxConstraint rewrites every caret clause of the expression to its
// lower bound ("^1.2.3" becomes ">=1.2.3") and reports whether anything
// changed. All other clauses and the separators between them are
// reproduced byte for byte, so explicit bounds survive untouched.
func RelaxConstraint(constraint types.VersionConstraint) (string, bool) {
	if !constraint.CaretOrigin {
		return constraint.Raw, false
	}
	var builder strings.Builder
	changed := false
	for _, token := range constraint.Tokens {
		if token.Kind == types.TokenKindClause && token.Clause.Op == types.ClauseOpCaret {
			builder.WriteString(">=")
			builder.WriteString(strings.TrimPrefix(token.Text, "^"))
			changed = true
			continue
		}
		builder.WriteString(token.Text)
	}
	return builder.String(), changed
}

// Classify decides whether a dependency is eligible for relaxation and
// names the reason when it is not. The Python interpreter requirement
// and non-registry sources are never rewritten.
func Classify(dep types.Dependency) (types.SkipReason, bool) {
	if dep.Python {
		return types.SkipReasonPython, false
	}
	if !dep.IsDirectVersion() {
		return types.SkipReasonNonVersion, false
	}
	if !dep.Constraint.CaretOrigin {
		return types.SkipReasonNoCaret, false
	}
	return types.SkipReasonNone, true
}
