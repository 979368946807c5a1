// Package babel wraps the pybabel utility for extracting translatable
// strings into a POT template and compiling per-language catalogs to
// binary form. Like the Transifex client, pybabel is expected in the
// project virtualenv (./bin/pybabel) and its output is passed through
// unmodified.
package babel

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

type runFunc func(ctx context.Context, dir string, name string, args ...string) error

// Tool invokes the pybabel binary for one project checkout.
type Tool struct {
	// Bin is the pybabel executable. Relative paths are resolved
	// against Dir.
	Bin string
	// Dir is the project root pybabel runs in. Extraction scans this
	// directory tree.
	Dir string

	run runFunc
}

// New returns a pybabel wrapper for the checkout at dir.
func New(dir, bin string) *Tool {
	return &Tool{Bin: bin, Dir: dir, run: runPybabel}
}

func runPybabel(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (t *Tool) binPath() string {
	if filepath.IsAbs(t.Bin) {
		return t.Bin
	}
	return filepath.Join(t.Dir, t.Bin)
}

// Extract scans the project tree for translatable strings using the
// given mapping config and writes the template catalog to potFile
// (pybabel extract -F <mapping> -o <pot> .). Paths are interpreted
// relative to the project root.
func (t *Tool) Extract(ctx context.Context, mappingFile, potFile string) error {
	if err := t.run(ctx, t.Dir, t.binPath(), "extract", "-F", mappingFile, "-o", potFile, "."); err != nil {
		return fmt.Errorf("pybabel extract: %w", err)
	}
	return nil
}

// Compile builds binary .mo catalogs for every language of the domain
// under translationsDir (pybabel compile -D <domain> -d <dir>).
func (t *Tool) Compile(ctx context.Context, domain, translationsDir string) error {
	if err := t.run(ctx, t.Dir, t.binPath(), "compile", "-D", domain, "-d", translationsDir); err != nil {
		return fmt.Errorf("pybabel compile: %w", err)
	}
	return nil
}
