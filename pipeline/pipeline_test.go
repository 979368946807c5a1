package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mediagoblin/txsync/config"
	"github.com/mediagoblin/txsync/git"
)

// fake implements Repository, Platform, and CatalogTool, recording
// every call and failing on demand.
type fake struct {
	calls []string
	errs  map[string]error

	stage     []git.StageStatus
	stageCall int
}

func (f *fake) record(name string) error {
	f.calls = append(f.calls, name)
	return f.errs[name]
}

func (f *fake) Checkout(ctx context.Context, branch string) error {
	return f.record("checkout " + branch)
}

func (f *fake) Pull(ctx context.Context) error {
	return f.record("git pull")
}

func (f *fake) Stage(ctx context.Context, path string) (git.StageStatus, error) {
	if err := f.record("stage " + path); err != nil {
		return 0, err
	}
	status := git.StagedChanges
	if f.stageCall < len(f.stage) {
		status = f.stage[f.stageCall]
	}
	f.stageCall++
	return status, nil
}

func (f *fake) Commit(ctx context.Context, message string) error {
	return f.record("commit " + message)
}

func (f *fake) PullAll(ctx context.Context) error {
	return f.record("tx pull")
}

func (f *fake) PushSource(ctx context.Context) error {
	return f.record("tx push")
}

func (f *fake) Extract(ctx context.Context, mappingFile, potFile string) error {
	return f.record("extract " + mappingFile + " " + potFile)
}

func (f *fake) Compile(ctx context.Context, domain, dir string) error {
	return f.record("compile " + domain + " " + dir)
}

func testProject() *config.Project {
	return &config.Project{
		Root:            "/checkout",
		Branch:          "master",
		TranslationsDir: "mediagoblin/i18n",
		POTFile:         "mediagoblin/i18n/templates/mediagoblin.pot",
		MappingFile:     "babel.ini",
		Domain:          "mediagoblin",
	}
}

func newPipeline(f *fake) *Pipeline {
	return &Pipeline{Repo: f, Remote: f, Catalog: f, Project: testProject()}
}

func TestRunFullSequenceWithChanges(t *testing.T) {
	t.Parallel()

	f := &fake{stage: []git.StageStatus{git.StagedChanges, git.StagedChanges}}
	if err := newPipeline(f).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"checkout master",
		"git pull",
		"tx pull",
		"stage mediagoblin/i18n",
		"commit Committing present MediaGoblin translations before pushing extracted messages",
		"extract babel.ini mediagoblin/i18n/templates/mediagoblin.pot",
		"tx push",
		"tx pull",
		"compile mediagoblin mediagoblin/i18n",
		"stage mediagoblin/i18n",
		"commit Committing extracted and compiled translations",
	}
	if diff := cmp.Diff(want, f.calls); diff != "" {
		t.Fatalf("call sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSkipsCommitsWhenNothingStaged(t *testing.T) {
	t.Parallel()

	f := &fake{stage: []git.StageStatus{git.NothingToStage, git.NothingToStage}}
	if err := newPipeline(f).Run(context.Background()); err != nil {
		t.Fatalf("unchanged catalogs must not fail the pipeline: %v", err)
	}

	for _, call := range f.calls {
		if len(call) >= 6 && call[:6] == "commit" {
			t.Fatalf("unexpected commit with nothing staged: %q", call)
		}
	}

	// Both staging steps still ran.
	staged := 0
	for _, call := range f.calls {
		if call == "stage mediagoblin/i18n" {
			staged++
		}
	}
	if staged != 2 {
		t.Fatalf("stage called %d times, want 2", staged)
	}
}

func TestRunRepeatedCleanRunsCreateNoCommits(t *testing.T) {
	t.Parallel()

	// Two back-to-back runs with no upstream or source changes: every
	// staging reports nothing, so neither run may commit.
	f := &fake{stage: []git.StageStatus{
		git.NothingToStage, git.NothingToStage,
		git.NothingToStage, git.NothingToStage,
	}}
	p := newPipeline(f)

	for run := 0; run < 2; run++ {
		if err := p.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", run+1, err)
		}
	}

	for _, call := range f.calls {
		if len(call) >= 6 && call[:6] == "commit" {
			t.Fatalf("idempotence violated, commit recorded: %q", call)
		}
	}
}

func TestRunFailFast(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	tests := []struct {
		name     string
		failCall string
		// notAfter must never appear in the call log once failCall fails.
		notAfter string
	}{
		{name: "checkout fails", failCall: "checkout master", notAfter: "git pull"},
		{name: "git pull fails", failCall: "git pull", notAfter: "tx pull"},
		{name: "first tx pull fails", failCall: "tx pull", notAfter: "stage mediagoblin/i18n"},
		{name: "staging fails", failCall: "stage mediagoblin/i18n", notAfter: "extract babel.ini mediagoblin/i18n/templates/mediagoblin.pot"},
		{name: "extraction fails before push", failCall: "extract babel.ini mediagoblin/i18n/templates/mediagoblin.pot", notAfter: "tx push"},
		{name: "push fails", failCall: "tx push", notAfter: "compile mediagoblin mediagoblin/i18n"},
		{name: "compile fails", failCall: "compile mediagoblin mediagoblin/i18n", notAfter: "commit Committing extracted and compiled translations"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := &fake{
				stage: []git.StageStatus{git.StagedChanges, git.StagedChanges},
				errs:  map[string]error{tc.failCall: boom},
			}
			err := newPipeline(f).Run(context.Background())
			if !errors.Is(err, boom) {
				t.Fatalf("Run error = %v, want wrapped boom", err)
			}

			if f.calls[len(f.calls)-1] != tc.failCall {
				t.Fatalf("last call = %q, want the failing step %q", f.calls[len(f.calls)-1], tc.failCall)
			}
			for _, call := range f.calls {
				if call == tc.notAfter {
					t.Fatalf("step %q ran after %q failed", call, tc.failCall)
				}
			}
		})
	}
}

func TestRunCommitFailurePropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("hook rejected")
	f := &fake{
		stage: []git.StageStatus{git.StagedChanges},
		errs: map[string]error{
			"commit " + config.PrePushCommitMessage: boom,
		},
	}
	err := newPipeline(f).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped commit failure", err)
	}

	for _, call := range f.calls {
		if call == "tx push" {
			t.Fatal("push ran after the checkpoint commit failed")
		}
	}
}

func TestRunAnnouncesEveryStep(t *testing.T) {
	t.Parallel()

	var announced []string
	f := &fake{stage: []git.StageStatus{git.StagedChanges, git.StagedChanges}}
	p := newPipeline(f)
	p.Log = func(format string, args ...any) {
		announced = append(announced, format)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	steps := 0
	for _, msg := range announced {
		if msg == "[%d/%d] %s" {
			steps++
		}
	}
	if steps != 9 {
		t.Fatalf("announced %d steps, want 9", steps)
	}
}
