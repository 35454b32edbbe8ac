package adapters

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2/unstable"

	"pyrelax/internal/ports"
	"pyrelax/internal/shared"
	"pyrelax/internal/types"
)

// ManifestTOMLAdapter reads pyproject.toml with a byte-range aware TOML
// parser so each constraint string keeps its exact location in the
// file. Rewrites splice new constraints into the original bytes, which
// leaves formatting, comments and key order untouched.
type ManifestTOMLAdapter struct{}

func NewManifestTOMLAdapter() ManifestTOMLAdapter {
	return ManifestTOMLAdapter{}
}

func (a ManifestTOMLAdapter) Load(path string) (types.RawManifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.RawManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest not found").
			WithCause(err)
	}
	walker := newManifestWalker(content)
	if err := walker.run(); err != nil {
		return types.RawManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse pyproject").
			WithCause(err)
	}
	manifest := walker.manifest()
	manifest.Path = path
	return manifest, nil
}

// Render re-reads the manifest and replaces each planned constraint in
// place, highest offset first so earlier locations stay valid. With no
// changes the original bytes come back verbatim.
func (a ManifestTOMLAdapter) Render(path string, changes []types.PlannedChange) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest not found").
			WithCause(err)
	}
	if len(changes) == 0 {
		return content, nil
	}
	ordered := append([]types.PlannedChange(nil), changes...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Ref.Offset > ordered[j].Ref.Offset
	})
	for _, change := range ordered {
		end := change.Ref.Offset + change.Ref.Length
		if change.Ref.Offset < 0 || change.Ref.Length < 2 || end > len(content) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("constraint location for %s is out of range", change.Name))
		}
		quote := content[change.Ref.Offset]
		if (quote != '"' && quote != '\'') || content[end-1] != quote {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("constraint location for %s does not cover a string", change.Name))
		}
		var spliced bytes.Buffer
		spliced.Grow(len(content) + len(change.New))
		spliced.Write(content[:change.Ref.Offset])
		spliced.WriteByte(quote)
		spliced.WriteString(change.New)
		spliced.WriteByte(quote)
		spliced.Write(content[end:])
		content = spliced.Bytes()
	}
	return content, nil
}

// Write replaces the manifest through a temporary sibling file and
// rename so a failed write never leaves a half-written manifest behind.
func (a ManifestTOMLAdapter) Write(path string, content []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pyproject-*.toml")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write manifest").
			WithCause(err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write manifest").
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write manifest").
			WithCause(err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write manifest").
			WithCause(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write manifest").
			WithCause(err)
	}
	return nil
}

// manifestWalker folds the TOML expression stream into raw dependency
// groups. Groups and dependencies keep the order of their first
// appearance in the document.
type manifestWalker struct {
	parser *unstable.Parser
	groups []*rawGroupBuilder
	byName map[string]*rawGroupBuilder
	table  []string

	poetryName     string
	poetryVersion  string
	projectName    string
	projectVersion string
}

type rawGroupBuilder struct {
	name     string
	optional bool
	deps     []*types.RawDependency
}

func newManifestWalker(content []byte) *manifestWalker {
	parser := &unstable.Parser{}
	parser.Reset(content)
	return &manifestWalker{
		parser: parser,
		byName: map[string]*rawGroupBuilder{},
	}
}

func (w *manifestWalker) run() error {
	for w.parser.NextExpression() {
		node := w.parser.Expression()
		switch node.Kind {
		case unstable.Table:
			w.enterTable(w.keyParts(node), false)
		case unstable.ArrayTable:
			w.enterTable(w.keyParts(node), true)
		case unstable.KeyValue:
			path := append(append([]string(nil), w.table...), w.keyParts(node)...)
			w.assign(path, node.Value())
		}
	}
	return w.parser.Error()
}

func (w *manifestWalker) manifest() types.RawManifest {
	manifest := types.RawManifest{
		Name:    w.poetryName,
		Version: w.poetryVersion,
	}
	if manifest.Name == "" {
		manifest.Name = w.projectName
	}
	if manifest.Version == "" {
		manifest.Version = w.projectVersion
	}
	for _, builder := range w.groups {
		group := types.RawGroup{
			Name:     builder.name,
			Optional: builder.optional,
		}
		for _, dep := range builder.deps {
			group.Dependencies = append(group.Dependencies, *dep)
		}
		manifest.Groups = append(manifest.Groups, group)
	}
	return manifest
}

func (w *manifestWalker) keyParts(node *unstable.Node) []string {
	var parts []string
	it := node.Key()
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// enterTable records the new table context and registers any group or
// dependency the header itself declares. An array-of-tables header
// opens a fresh declaration each time it repeats.
func (w *manifestWalker) enterTable(path []string, arrayTable bool) {
	w.table = path

	group, rest, ok := dependencyTablePath(path)
	if ok {
		builder := w.ensureGroup(group)
		if len(rest) == 1 {
			w.ensureDependency(builder, rest[0], arrayTable)
		}
		return
	}
	if len(path) == 4 && path[0] == "tool" && path[1] == "poetry" && path[2] == "group" {
		w.ensureGroup(path[3])
	}
}

// dependencyTablePath maps a table path onto its dependency group and
// the remaining key parts. The legacy dev-dependencies table is folded
// into the dev group.
func dependencyTablePath(path []string) (string, []string, bool) {
	if len(path) >= 3 && path[0] == "tool" && path[1] == "poetry" {
		switch path[2] {
		case "dependencies":
			return types.MainGroup, path[3:], true
		case "dev-dependencies":
			return "dev", path[3:], true
		case "group":
			if len(path) >= 5 && path[4] == "dependencies" {
				return path[3], path[5:], true
			}
		}
	}
	return "", nil, false
}

func (w *manifestWalker) assign(path []string, value *unstable.Node) {
	if group, rest, ok := dependencyTablePath(path); ok {
		w.assignDependency(group, rest, value)
		return
	}
	switch {
	case len(path) == 3 && path[0] == "tool" && path[1] == "poetry":
		if value.Kind != unstable.String {
			return
		}
		switch path[2] {
		case "name":
			w.poetryName = string(value.Data)
		case "version":
			w.poetryVersion = string(value.Data)
		}
	case len(path) == 2 && path[0] == "project":
		if value.Kind != unstable.String {
			return
		}
		switch path[1] {
		case "name":
			w.projectName = string(value.Data)
		case "version":
			w.projectVersion = string(value.Data)
		}
	case len(path) == 5 && path[0] == "tool" && path[1] == "poetry" && path[2] == "group" && path[4] == "optional":
		w.ensureGroup(path[3]).optional = value.Kind == unstable.Bool && string(value.Data) == "true"
	}
}

// assignDependency interprets one key under a dependency table. rest is
// the key path relative to the table: a bare name carries the whole
// declaration, a name plus subkey addresses one field of a rich
// declaration.
func (w *manifestWalker) assignDependency(group string, rest []string, value *unstable.Node) {
	builder := w.ensureGroup(group)
	switch len(rest) {
	case 0:
		// the whole dependency table written as one inline table
		if value.Kind != unstable.InlineTable {
			return
		}
		it := value.Children()
		for it.Next() {
			entry := it.Node()
			if entry.Kind != unstable.KeyValue {
				continue
			}
			w.assignDependency(group, w.keyParts(entry), entry.Value())
		}
	case 1:
		switch value.Kind {
		case unstable.String:
			dep := w.ensureDependency(builder, rest[0], true)
			dep.Constraint = string(value.Data)
			dep.Ref = w.stringRef(value)
		case unstable.InlineTable:
			dep := w.ensureDependency(builder, rest[0], true)
			w.fillFromInlineTable(dep, value)
		case unstable.Array:
			it := value.Children()
			for it.Next() {
				element := it.Node()
				switch element.Kind {
				case unstable.String:
					dep := w.ensureDependency(builder, rest[0], true)
					dep.Constraint = string(element.Data)
					dep.Ref = w.stringRef(element)
				case unstable.InlineTable:
					dep := w.ensureDependency(builder, rest[0], true)
					w.fillFromInlineTable(dep, element)
				}
			}
		}
	case 2:
		dep := w.ensureDependency(builder, rest[0], false)
		w.fillField(dep, rest[1], value)
	}
}

// fillField sets one field of a rich dependency declaration. Keys other
// than version and the source selectors (path, url, git) do not affect
// relaxation and are ignored.
func (w *manifestWalker) fillField(dep *types.RawDependency, key string, value *unstable.Node) {
	switch key {
	case "version":
		if value.Kind == unstable.String {
			dep.Constraint = string(value.Data)
			dep.Ref = w.stringRef(value)
		}
	case "path":
		dep.Source = types.SourceKindPath
	case "url":
		dep.Source = types.SourceKindURL
	case "git":
		dep.Source = types.SourceKindGit
	}
}

func (w *manifestWalker) fillFromInlineTable(dep *types.RawDependency, table *unstable.Node) {
	it := table.Children()
	for it.Next() {
		entry := it.Node()
		if entry.Kind != unstable.KeyValue {
			continue
		}
		keys := w.keyParts(entry)
		if len(keys) != 1 {
			continue
		}
		w.fillField(dep, keys[0], entry.Value())
	}
}

func (w *manifestWalker) stringRef(node *unstable.Node) types.ManifestRef {
	return types.ManifestRef{
		Offset: int(node.Raw.Offset),
		Length: int(node.Raw.Length),
	}
}

func (w *manifestWalker) ensureGroup(name string) *rawGroupBuilder {
	if builder, ok := w.byName[name]; ok {
		return builder
	}
	builder := &rawGroupBuilder{name: name}
	w.groups = append(w.groups, builder)
	w.byName[name] = builder
	return builder
}

// ensureDependency returns the group's open declaration for name, or
// appends a new one. fresh forces a new entry, which is how array
// elements of a multiple-constraint dependency each get their own
// record.
func (w *manifestWalker) ensureDependency(builder *rawGroupBuilder, name string, fresh bool) *types.RawDependency {
	if !fresh {
		for i := len(builder.deps) - 1; i >= 0; i-- {
			if builder.deps[i].Name == name {
				return builder.deps[i]
			}
		}
	}
	dep := &types.RawDependency{
		Name:   name,
		Group:  builder.name,
		Source: types.SourceKindVersion,
		Python: shared.NormalizePackageName(name) == "python",
	}
	builder.deps = append(builder.deps, dep)
	return dep
}

var _ ports.ManifestPort = ManifestTOMLAdapter{}
