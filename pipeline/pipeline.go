// Package pipeline runs the translation sync sequence: pull current
// translations from the platform, checkpoint them in version control,
// extract and push a fresh template, re-pull, compile, and checkpoint
// again.
//
// The sequence is strictly ordered and fail-fast: the first step that
// returns an error aborts the run, with no retry, rollback, or cleanup
// of partially modified files. The only condition that is explicitly
// not an error is a commit step finding nothing staged: an unchanged
// catalog tree is a legitimate no-op.
package pipeline

import (
	"context"
	"fmt"

	"github.com/mediagoblin/txsync/config"
	"github.com/mediagoblin/txsync/git"
)

// Repository is the version-control surface the pipeline needs.
// *git.Repo implements it.
type Repository interface {
	Checkout(ctx context.Context, branch string) error
	Pull(ctx context.Context) error
	Stage(ctx context.Context, path string) (git.StageStatus, error)
	Commit(ctx context.Context, message string) error
}

// Platform is the translation-platform surface the pipeline needs.
// *transifex.Client implements it.
type Platform interface {
	PullAll(ctx context.Context) error
	PushSource(ctx context.Context) error
}

// CatalogTool extracts templates and compiles catalogs.
// *babel.Tool implements it.
type CatalogTool interface {
	Extract(ctx context.Context, mappingFile, potFile string) error
	Compile(ctx context.Context, domain, translationsDir string) error
}

// LogFunc receives progress announcements. Each step is announced
// before it runs, so on failure the last announced step names the
// culprit.
type LogFunc func(format string, args ...any)

// Pipeline wires the collaborators for one sync run. The project
// handle carries the checkout paths explicitly; no step depends on
// the process working directory.
type Pipeline struct {
	Repo    Repository
	Remote  Platform
	Catalog CatalogTool
	Project *config.Project
	Log     LogFunc
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Run executes the sync sequence and returns the first step error, if
// any, wrapped with the step name.
func (p *Pipeline) Run(ctx context.Context) error {
	proj := p.Project

	steps := []step{
		{"checkout " + proj.Branch, func(ctx context.Context) error {
			return p.Repo.Checkout(ctx, proj.Branch)
		}},
		{"pull from default remote", func(ctx context.Context) error {
			return p.Repo.Pull(ctx)
		}},
		{"pull translations from platform", func(ctx context.Context) error {
			return p.Remote.PullAll(ctx)
		}},
		{"commit pulled translations", func(ctx context.Context) error {
			return p.commitIfStaged(ctx, config.PrePushCommitMessage)
		}},
		{"extract strings to " + proj.POTFile, func(ctx context.Context) error {
			return p.Catalog.Extract(ctx, proj.MappingFile, proj.POTFile)
		}},
		{"push source template to platform", func(ctx context.Context) error {
			return p.Remote.PushSource(ctx)
		}},
		{"re-pull translations from platform", func(ctx context.Context) error {
			return p.Remote.PullAll(ctx)
		}},
		{"compile catalogs in " + proj.TranslationsDir, func(ctx context.Context) error {
			return p.Catalog.Compile(ctx, proj.Domain, proj.TranslationsDir)
		}},
		{"commit extracted and compiled translations", func(ctx context.Context) error {
			return p.commitIfStaged(ctx, config.FinalCommitMessage)
		}},
	}

	for i, s := range steps {
		p.logf("[%d/%d] %s", i+1, len(steps), s.name)
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// commitIfStaged stages the catalog tree and commits only when
// staging reports actual changes.
func (p *Pipeline) commitIfStaged(ctx context.Context, message string) error {
	status, err := p.Repo.Stage(ctx, p.Project.TranslationsDir)
	if err != nil {
		return err
	}
	if status == git.NothingToStage {
		p.logf("no changes in %s, skipping commit", p.Project.TranslationsDir)
		return nil
	}
	return p.Repo.Commit(ctx, message)
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.Log != nil {
		p.Log(format, args...)
	}
}
