package types

type SourceKind string

const (
	SourceKindVersion SourceKind = "version"
	SourceKindPath    SourceKind = "path"
	SourceKindURL     SourceKind = "url"
	SourceKindGit     SourceKind = "git"
)

type RelaxMode string

const (
	RelaxModeWrite  RelaxMode = "write"
	RelaxModeDryRun RelaxMode = "dry-run"
	RelaxModeCheck  RelaxMode = "check"
	RelaxModeUpdate RelaxMode = "update"
	RelaxModeLock   RelaxMode = "lock"
)

type ClauseOp string

const (
	ClauseOpNone     ClauseOp = ""
	ClauseOpCaret    ClauseOp = "^"
	ClauseOpTilde    ClauseOp = "~"
	ClauseOpEq       ClauseOp = "="
	ClauseOpEq2      ClauseOp = "=="
	ClauseOpNe       ClauseOp = "!="
	ClauseOpCompat   ClauseOp = "~="
	ClauseOpGte      ClauseOp = ">="
	ClauseOpLte      ClauseOp = "<="
	ClauseOpGt       ClauseOp = ">"
	ClauseOpLt       ClauseOp = "<"
	ClauseOpWildcard ClauseOp = "*"
	ClauseOpRange    ClauseOp = "-"
)

type SkipReason string

const (
	SkipReasonNone       SkipReason = ""
	SkipReasonNoCaret    SkipReason = "no-caret-bound"
	SkipReasonPython     SkipReason = "python-interpreter"
	SkipReasonNonVersion SkipReason = "non-version-source"
)

type TokenKind string

const (
	TokenKindClause    TokenKind = "clause"
	TokenKindSeparator TokenKind = "separator"
)

type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)
