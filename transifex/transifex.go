// Package transifex wraps the Transifex command-line client (tx).
// The client binary normally lives in the project virtualenv at
// ./bin/tx; the package only shells out to it and never speaks the
// Transifex API directly, so project mappings in .tx/config keep
// working unchanged.
package transifex

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// runFunc executes the client binary. Split out so tests can record
// the exact invocation without a tx install.
type runFunc func(ctx context.Context, dir string, env []string, name string, args ...string) error

// Client invokes the tx binary for one project checkout.
type Client struct {
	// Bin is the tx executable. Relative paths are resolved against Dir,
	// preserving the ./bin/tx virtualenv convention.
	Bin string
	// Dir is the project root the client runs in.
	Dir string
	// Token, when set, is passed to tx as TX_TOKEN.
	Token string

	run runFunc
}

// New returns a client for the checkout at dir using the given binary.
func New(dir, bin, token string) *Client {
	return &Client{Bin: bin, Dir: dir, Token: token, run: runTx}
}

func runTx(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// binPath resolves Bin against Dir when relative. exec would otherwise
// resolve "./bin/tx" against the process working directory.
func (c *Client) binPath() string {
	if filepath.IsAbs(c.Bin) {
		return c.Bin
	}
	return filepath.Join(c.Dir, c.Bin)
}

// env returns the child environment, with TX_TOKEN appended when a
// token is configured.
func (c *Client) env() []string {
	env := os.Environ()
	if c.Token != "" {
		env = append(env, "TX_TOKEN="+c.Token)
	}
	return env
}

func (c *Client) tx(ctx context.Context, args ...string) error {
	if err := c.run(ctx, c.Dir, c.env(), c.binPath(), args...); err != nil {
		return fmt.Errorf("tx %s: %w", args[0], err)
	}
	return nil
}

// PullAll downloads the current translations for every language
// (tx pull -a).
func (c *Client) PullAll(ctx context.Context) error {
	return c.tx(ctx, "pull", "-a")
}

// PushSource uploads the extracted template as the new source
// resource (tx push -s).
func (c *Client) PushSource(ctx context.Context) error {
	return c.tx(ctx, "push", "-s")
}
