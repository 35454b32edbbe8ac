package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyrelax/internal/ports"
)

// StagingAdapter lays out a throwaway project directory holding a
// candidate manifest. The directory is created next to the real project
// so relative path dependencies resolve from it the same way, and the
// lockfile and README are carried over because the resolver reads them.
type StagingAdapter struct{}

func NewStagingAdapter() StagingAdapter {
	return StagingAdapter{}
}

func (a StagingAdapter) Stage(projectDir string, manifest []byte) (string, func(), error) {
	dir, err := os.MkdirTemp(filepath.Dir(projectDir), ".pyrelax-check-")
	if err != nil {
		return "", nil, stageError(err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), manifest, 0o644); err != nil {
		cleanup()
		return "", nil, stageError(err)
	}
	if err := copyIfPresent(filepath.Join(projectDir, "poetry.lock"), filepath.Join(dir, "poetry.lock")); err != nil {
		cleanup()
		return "", nil, stageError(err)
	}
	readmes, _ := filepath.Glob(filepath.Join(projectDir, "README*"))
	for _, readme := range readmes {
		if err := copyIfPresent(readme, filepath.Join(dir, filepath.Base(readme))); err != nil {
			cleanup()
			return "", nil, stageError(err)
		}
	}
	return dir, cleanup, nil
}

func copyIfPresent(src string, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, info.Mode().Perm())
}

func stageError(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to stage manifest").
		WithCause(err)
}

var _ ports.StagingPort = StagingAdapter{}
