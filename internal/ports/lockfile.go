package ports

// LockfilePort reads pinned versions from a lockfile.
type LockfilePort interface {
	PinnedVersions(path string) (map[string]string, error)
}
