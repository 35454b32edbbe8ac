package ports

import "context"

// ResolverPort drives the external package manager.
type ResolverPort interface {
	// Version reports the package manager's own version string.
	Version(ctx context.Context) (string, error)

	// Check dry-runs an update inside dir and fails when the dependency
	// set cannot be solved. The combined command output is returned for
	// diagnostics either way.
	Check(ctx context.Context, dir string) (string, error)

	// Update upgrades the named dependencies inside dir.
	Update(ctx context.Context, dir string, names []string) (string, error)

	// Lock regenerates the lockfile inside dir without installing.
	Lock(ctx context.Context, dir string) (string, error)
}
