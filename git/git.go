// Package git provides the version-control operations txsync needs,
// via the git CLI and os/exec rather than a Go git library. Calling
// the CLI keeps the tool compatible with user configuration: SSH
// keys, credential helpers, commit hooks, and aliases all behave
// exactly as they do in the operator's shell.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// StageStatus is the outcome of staging a path. Staging is tri-state:
// changes were staged, there was nothing to stage, or the command
// itself failed (reported through the error return).
type StageStatus int

const (
	// StagedChanges means the index now differs from HEAD for the path.
	StagedChanges StageStatus = iota + 1
	// NothingToStage means the working tree matched HEAD for the path.
	NothingToStage
)

// String implements fmt.Stringer for log output.
func (s StageStatus) String() string {
	switch s {
	case StagedChanges:
		return "changes staged"
	case NothingToStage:
		return "nothing to stage"
	default:
		return "unknown"
	}
}

// runFunc executes a command in dir and reports its exit code. A
// non-nil error means the command could not be run at all (binary
// missing, context cancelled); a command that ran and exited non-zero
// yields (code, nil).
type runFunc func(ctx context.Context, dir string, name string, args ...string) (int, error)

// Repo is a handle on a git checkout. Every operation carries the
// checkout directory explicitly; nothing depends on the process
// working directory.
type Repo struct {
	// Dir is the absolute path to the checkout root.
	Dir string

	run runFunc
}

// Open returns a handle on the checkout at dir. The directory is not
// validated here; the first git invocation surfaces a bad path.
func Open(dir string) *Repo {
	return &Repo{Dir: dir, run: runGit}
}

// runGit executes git with output passed through unmodified, so the
// operator sees git's own progress and error reporting.
func runGit(ctx context.Context, dir string, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// git runs a git subcommand and treats any non-zero exit as an error.
func (r *Repo) git(ctx context.Context, args ...string) error {
	code, err := r.run(ctx, r.Dir, "git", args...)
	if err != nil {
		return fmt.Errorf("running git %s: %w", args[0], err)
	}
	if code != 0 {
		return fmt.Errorf("git %s exited with status %d", args[0], code)
	}
	return nil
}

// Checkout switches the working copy to the named branch.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	return r.git(ctx, "checkout", branch)
}

// Pull fetches and integrates changes from the default remote.
func (r *Repo) Pull(ctx context.Context) error {
	return r.git(ctx, "pull")
}

// Stage adds path to the index and reports whether anything actually
// changed. A pull that left the catalogs byte-identical stages
// nothing, and that is a legitimate no-op, not a failure.
func (r *Repo) Stage(ctx context.Context, path string) (StageStatus, error) {
	if err := r.git(ctx, "add", "--", path); err != nil {
		return 0, err
	}

	// diff --cached --quiet exits 1 when the index differs from HEAD.
	code, err := r.run(ctx, r.Dir, "git", "diff", "--cached", "--quiet", "--", path)
	if err != nil {
		return 0, fmt.Errorf("running git diff: %w", err)
	}
	switch code {
	case 0:
		return NothingToStage, nil
	case 1:
		return StagedChanges, nil
	default:
		return 0, fmt.Errorf("git diff exited with status %d", code)
	}
}

// Commit records the staged changes with the given message.
func (r *Repo) Commit(ctx context.Context, message string) error {
	return r.git(ctx, "commit", "-m", message)
}
