package types

// Clause is a single comparison inside a constraint expression.
type Clause struct {
	Op      ClauseOp
	Version string
	Raw     string
}

// ConstraintToken is one piece of a constraint expression. Separator
// tokens hold the verbatim bytes between clauses so an expression can be
// reassembled without reformatting the parts that did not change.
type ConstraintToken struct {
	Kind   TokenKind
	Text   string
	Or     bool
	Clause Clause
}

// VersionConstraint is a parsed dependency constraint expression.
// LowerBound and UpperBound are the effective version bounds implied by
// the whole expression; UpperBound is empty when the expression is
// unbounded above. CaretOrigin reports whether any clause uses the
// caret operator.
type VersionConstraint struct {
	Raw         string
	Tokens      []ConstraintToken
	LowerBound  string
	UpperBound  string
	CaretOrigin bool
}

func (c VersionConstraint) Clauses() []Clause {
	var clauses []Clause
	for _, token := range c.Tokens {
		if token.Kind == TokenKindClause {
			clauses = append(clauses, token.Clause)
		}
	}
	return clauses
}

type Dependency struct {
	Name       string
	Group      string
	Source     SourceKind
	Python     bool
	Constraint VersionConstraint
	Ref        ManifestRef
}

// IsDirectVersion reports whether the dependency is declared with a
// plain version constraint. Path, URL, and git dependencies are not.
func (d Dependency) IsDirectVersion() bool {
	return d.Source == SourceKindVersion
}
