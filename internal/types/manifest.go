package types

// MainGroup is the implicit group that holds [tool.poetry.dependencies].
const MainGroup = "main"

// ManifestRef locates a constraint string literal inside the manifest
// file. Offset and Length cover the whole string token, quotes included.
type ManifestRef struct {
	Offset int
	Length int
}

func (r ManifestRef) Valid() bool {
	return r.Length > 0
}

// RawDependency is a dependency as it appears in the manifest, before
// constraint parsing.
type RawDependency struct {
	Name       string
	Group      string
	Source     SourceKind
	Python     bool
	Constraint string
	Ref        ManifestRef
}

type RawGroup struct {
	Name         string
	Optional     bool
	Dependencies []RawDependency
}

type RawManifest struct {
	Path    string
	Name    string
	Version string
	Groups  []RawGroup
}

type DependencyGroup struct {
	Name         string
	Optional     bool
	Dependencies []Dependency
}

type Manifest struct {
	Path    string
	Name    string
	Version string
	Groups  []DependencyGroup
}

func (m Manifest) Group(name string) (DependencyGroup, bool) {
	for _, group := range m.Groups {
		if group.Name == name {
			return group, true
		}
	}
	return DependencyGroup{}, false
}

func (m Manifest) GroupNames() []string {
	names := make([]string, 0, len(m.Groups))
	for _, group := range m.Groups {
		names = append(names, group.Name)
	}
	return names
}
