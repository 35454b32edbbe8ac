package ports

import "pyrelax/internal/types"

// ManifestPort reads and rewrites pyproject manifests. Render splices
// planned constraint changes into the original bytes so every other
// byte of the file survives; with no changes the result is identical to
// the input.
type ManifestPort interface {
	Load(path string) (types.RawManifest, error)
	Render(path string, changes []types.PlannedChange) ([]byte, error)
	Write(path string, content []byte) error
}
