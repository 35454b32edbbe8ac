package adapters

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"

	"pyrelax/internal/ports"
	"pyrelax/internal/shared"
)

type LockReaderAdapter struct{}

func NewLockReaderAdapter() LockReaderAdapter {
	return LockReaderAdapter{}
}

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// PinnedVersions returns the locked version per package, keyed by
// normalized package name.
func (a LockReaderAdapter) PinnedVersions(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("lockfile not found").
			WithCause(err)
	}
	var lock lockFile
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse lockfile").
			WithCause(err)
	}
	pinned := make(map[string]string, len(lock.Packages))
	for _, pkg := range lock.Packages {
		if pkg.Name == "" {
			continue
		}
		pinned[shared.NormalizePackageName(pkg.Name)] = pkg.Version
	}
	return pinned, nil
}

var _ ports.LockfilePort = LockReaderAdapter{}
