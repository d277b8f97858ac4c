// resxlate: translates localization resource files (.resx, Android
// strings.xml, YAML, .properties) through a machine translation service,
// keeping inline markup intact.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/minios-linux/resxlate/config"
	"github.com/minios-linux/resxlate/i18n"
	"github.com/minios-linux/resxlate/lockfile"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", infoColor.Sprint("[INFO]"), fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", successColor.Sprint("[OK]"), fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warningColor.Sprint("[WARN]"), fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor.Sprint("[ERROR]"), fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	verbose bool
	noColor bool
	uiLang  string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resxlate",
		Short: "Translate localization resource files with a machine translation service",
		Long: `resxlate translates localization resource files with Azure Translator or
Google Translate. Inline HTML markup in values is kept; only the text
between tags is sent to the service.

Targets are declared in .resxlate.yaml next to the resources:

  source_lang: en
  languages: [de, fr, pt-BR]
  targets:
    - name: app
      source: Resources/Strings.resx
      target: Resources/Strings.{lang}.resx

Supported formats: .resx, Android strings.xml, YAML, Java .properties.

Commands:
  status      Show per-language translation statistics
  translate   Translate missing entries (or whole files with --mode all)
  quality     Rate existing translations by back-translation
  cleanup     Remove entries the source no longer has
  languages   List known language codes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			i18n.Init(uiLang)
		},
	}

	// Global persistent flags inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory (where "+config.FileName+" lives)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable detailed logging")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&uiLang, "ui-lang", "", "Language of resxlate's own messages (default: from LANG)")
	_ = root.RegisterFlagCompletionFunc("ui-lang", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return i18n.Available(), cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newStatusCmd(),
		newTranslateCmd(),
		newQualityCmd(),
		newCleanupCmd(),
		newLanguagesCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "resxlate version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// project is a loaded configuration with its resolved targets.
type project struct {
	cfg     *config.File
	targets []config.ResolvedTarget
	lock    *lockfile.LockFile
}

func loadProject() (*project, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	targets, err := cfg.Resolve(rootDir)
	if err != nil {
		return nil, err
	}
	lock, err := lockfile.Load(rootDir)
	if err != nil {
		return nil, err
	}
	return &project{cfg: cfg, targets: targets, lock: lock}, nil
}

// selectTargets keeps the targets named in filter (all when filter is
// empty). Unknown names are an error.
func selectTargets(targets []config.ResolvedTarget, filter []string) ([]config.ResolvedTarget, error) {
	if len(filter) == 0 {
		return targets, nil
	}
	byName := make(map[string]config.ResolvedTarget, len(targets))
	for _, t := range targets {
		byName[t.Target.Name] = t
	}
	var out []config.ResolvedTarget
	for _, name := range filter {
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf(i18n.T("unknown target %q"), name)
		}
		out = append(out, t)
	}
	return out, nil
}

// targetLanguages returns the languages of rt to process for a --lang
// filter, without the target's source language.
func targetLanguages(rt config.ResolvedTarget, filter []string) []string {
	langs := rt.Languages
	if len(filter) > 0 {
		langs = intersectLanguages(langs, filter)
	}
	return filterOutLang(langs, rt.SourceLang)
}

// intersectLanguages keeps the filter order; entries are trimmed.
func intersectLanguages(available, filter []string) []string {
	set := make(map[string]bool, len(available))
	for _, l := range available {
		set[l] = true
	}
	var out []string
	for _, l := range filter {
		l = strings.TrimSpace(l)
		if set[l] {
			out = append(out, l)
		}
	}
	return out
}

func filterOutLang(langs []string, lang string) []string {
	var out []string
	for _, l := range langs {
		if l != lang {
			out = append(out, l)
		}
	}
	return out
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// interruptContext returns a context cancelled on Ctrl-C.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			logWarning("%s", i18n.T("Interrupted, finishing up..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
