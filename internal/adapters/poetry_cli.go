package adapters

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"pyrelax/internal/ports"
	"pyrelax/internal/shared"
)

// PoetryCLIAdapter shells out to the poetry binary. Solver verdicts are
// read from the exit status of a dry-run update, so the adapter works
// against any poetry new enough to know that flag.
type PoetryCLIAdapter struct {
	Binary string
	NoAnsi bool
}

func NewPoetryCLIAdapter(binary string, noAnsi bool) PoetryCLIAdapter {
	return PoetryCLIAdapter{Binary: binary, NoAnsi: noAnsi}
}

var poetryVersionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)*`)

func (a PoetryCLIAdapter) Version(ctx context.Context) (string, error) {
	output, err := a.run(ctx, "", "--version")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("poetry command failed").
			WithCause(err)
	}
	version := poetryVersionPattern.FindString(output)
	if version == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("could not parse poetry version").
			WithCause(errors.New(strings.TrimSpace(output)))
	}
	return version, nil
}

// Check resolves the project in dir without writing anything. A nonzero
// exit from the solver is the rejection verdict; every other failure is
// an execution problem.
func (a PoetryCLIAdapter) Check(ctx context.Context, dir string) (string, error) {
	output, err := a.run(ctx, dir, "update", "--dry-run", "--no-interaction")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("solver rejected relaxed constraints").
				WithCause(err)
		}
		return output, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("poetry command failed").
			WithCause(err)
	}
	return output, nil
}

func (a PoetryCLIAdapter) Update(ctx context.Context, dir string, names []string) (string, error) {
	args := append([]string{"update", "--no-interaction"}, names...)
	output, err := a.run(ctx, dir, args...)
	if err != nil {
		return output, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("poetry command failed").
			WithCause(err)
	}
	return output, nil
}

func (a PoetryCLIAdapter) Lock(ctx context.Context, dir string) (string, error) {
	version, err := a.Version(ctx)
	if err != nil {
		return "", err
	}
	output, err := a.run(ctx, dir, lockArgs(version)...)
	if err != nil {
		return output, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("poetry command failed").
			WithCause(err)
	}
	return output, nil
}

// lockArgs picks the lock invocation that refreshes the lockfile
// without upgrading pins. Poetry 2.0 made that the default and dropped
// the old flag.
func lockArgs(version string) []string {
	parsed, err := pep440.Parse(strings.TrimSpace(version))
	if err != nil {
		return []string{"lock", "--no-update"}
	}
	boundary, err := pep440.Parse("2.0")
	if err != nil || parsed.LessThan(boundary) {
		return []string{"lock", "--no-update"}
	}
	return []string{"lock"}
}

func (a PoetryCLIAdapter) run(ctx context.Context, dir string, args ...string) (string, error) {
	binary := a.Binary
	if binary == "" {
		binary = "poetry"
	}
	if a.NoAnsi {
		args = append(args, "--no-ansi")
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), shared.CommandError(output, err)
	}
	return string(output), nil
}

var _ ports.ResolverPort = PoetryCLIAdapter{}
