// txsync — synchronize MediaGoblin translations between git and Transifex.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mediagoblin/txsync/babel"
	"github.com/mediagoblin/txsync/config"
	"github.com/mediagoblin/txsync/git"
	"github.com/mediagoblin/txsync/i18n"
	"github.com/mediagoblin/txsync/lockfile"
	"github.com/mediagoblin/txsync/pipeline"
	"github.com/mediagoblin/txsync/pofile"
	"github.com/mediagoblin/txsync/transifex"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "txsync",
		Short: "Synchronize MediaGoblin translations between git and Transifex",
		Long: `txsync — synchronize MediaGoblin translations between git and Transifex.

Run without arguments to execute the full sync pipeline:

  1. checkout the main branch and pull from the default remote
  2. pull current translations from Transifex and commit them
  3. extract translatable strings with pybabel and push the template
  4. re-pull translations, compile catalogs, and commit the result

The pipeline is fail-fast: the first failing step aborts the run.
Commits are only created when the catalog tree actually changed.

Commands:
  sync        Run the full sync pipeline (default)
  status      Show per-language translation statistics
  extract     Extract translatable strings into the POT template
  compile     Compile catalogs to binary form`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context())
		},
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Repository checkout directory")

	root.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newExtractCmd(),
		newCompileCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, stopping after the current command...")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("txsync version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// sync (the full pipeline)
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run the full translation sync pipeline",
		Long: `Run the full sync pipeline against the checkout.

Equivalent to invoking txsync with no arguments. Requires git, the
Transifex client, and pybabel to be reachable (the latter two default
to the virtualenv paths ./bin/tx and ./bin/pybabel).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context())
		},
	}
}

func runSync(ctx context.Context) error {
	proj, err := config.Load(rootDir)
	if err != nil {
		return err
	}

	lock, err := lockfile.Acquire(proj.Root)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logWarning("%v", err)
		}
	}()

	logInfo(i18n.T("Starting translation sync of %s"), proj.Root)

	p := &pipeline.Pipeline{
		Repo:    git.Open(proj.Root),
		Remote:  transifex.New(proj.Root, proj.TxBin, proj.TxToken),
		Catalog: babel.New(proj.Root, proj.PybabelBin),
		Project: proj,
		Log:     logInfo,
	}

	if err := p.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr)
	showStatsTable(proj)
	logSuccess(i18n.T("Translation sync complete!"))
	return nil
}

// ---------------------------------------------------------------------------
// status (read-only translation statistics)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-language translation statistics",
		Long: `Show translation statistics for every language catalog in the
checkout. Does not modify any files and does not contact Transifex.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			runStatus(proj)
			return nil
		},
	}
}

func runStatus(proj *config.Project) {
	fmt.Fprintf(os.Stderr, "\n%sProject%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Root:         %s\n", proj.Root)
	fmt.Fprintf(os.Stderr, "  Branch:       %s\n", proj.Branch)
	fmt.Fprintf(os.Stderr, "  Domain:       %s\n", proj.Domain)
	fmt.Fprintf(os.Stderr, "  Translations: %s\n", proj.TranslationsDir)
	fmt.Fprintf(os.Stderr, "  Template:     %s\n", proj.POTFile)
	fmt.Fprintln(os.Stderr)

	showStatsTable(proj)
}

func showStatsTable(proj *config.Project) {
	langs := proj.Languages()
	if len(langs) == 0 {
		logInfo(i18n.T("No translation catalogs found in %s"), proj.TranslationsDir)
		return
	}

	potTotal := 0
	if pot, err := pofile.ParseFile(proj.AbsPOTFile()); err == nil {
		potTotal, _, _, _ = pot.Stats()
	}

	fmt.Fprintf(os.Stderr, "%sTranslation Statistics%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-10s %-12s %-10s %-10s %-8s\n", "Lang", "Translated", "Fuzzy", "Untrans.", "Percent")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))

	for _, lang := range langs {
		catalog, err := pofile.ParseFile(proj.POPath(lang))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%-10s %-12s %-10s %-10s %-8s\n", lang, "error", "-", "-", "-")
			continue
		}

		total, translated, fuzzy, untranslated := catalog.Stats()
		fmt.Fprintf(os.Stderr, "%-10s %-12d %-10d %-10d %d%%\n",
			lang, translated, fuzzy, untranslated, percent(translated, total))
	}

	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))
	if potTotal > 0 {
		fmt.Fprintf(os.Stderr, i18n.T("Total strings: %d")+"\n", potTotal)
	}
	fmt.Fprintln(os.Stderr)
}

// percent computes translated/total as a whole percentage, clamped to
// 0 for empty catalogs.
func percent(translated, total int) int {
	if total <= 0 {
		return 0
	}
	return translated * 100 / total
}

// ---------------------------------------------------------------------------
// extract / compile (individual pipeline steps)
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract translatable strings into the POT template",
		Long: `Run only the extraction step: scan the checkout with pybabel using
the mapping config and rewrite the POT template. Neither git nor
Transifex is touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			tool := babel.New(proj.Root, proj.PybabelBin)
			logInfo("Extracting strings to %s", proj.POTFile)
			if err := tool.Extract(cmd.Context(), proj.MappingFile, proj.POTFile); err != nil {
				return err
			}
			logSuccess("Extraction complete")
			return nil
		},
	}
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Compile catalogs to binary form",
		Long: `Run only the compilation step: compile every per-language catalog
of the domain to its binary .mo form with pybabel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			tool := babel.New(proj.Root, proj.PybabelBin)
			logInfo("Compiling %s catalogs in %s", proj.Domain, proj.TranslationsDir)
			if err := tool.Compile(cmd.Context(), proj.Domain, proj.TranslationsDir); err != nil {
				return err
			}
			logSuccess("Compilation complete")
			return nil
		},
	}
}
