package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/minios-linux/resxlate/azure"
	"github.com/minios-linux/resxlate/config"
	"github.com/minios-linux/resxlate/i18n"
	"github.com/minios-linux/resxlate/langmeta"
	"github.com/minios-linux/resxlate/lockfile"
	"github.com/minios-linux/resxlate/resfile"
	"github.com/minios-linux/resxlate/resource"
)

// ---------------------------------------------------------------------------
// status (read-only: per-language statistics)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var targets string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show translation statistics",
		Long: `Show, for every target and configured language, the translated file, the
number of entries, how many source keys are missing, how many target keys
are obsolete, how many were translated from a source value that has since
changed (stale), and when the file was last modified. Does not modify any
files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), splitList(targets))
		},
	}
	cmd.Flags().StringVar(&targets, "target", "", "Targets to show (comma-separated names, default: all)")
	return cmd
}

// langStatus is one row of the status table.
type langStatus struct {
	Lang     string
	Name     string
	File     string
	Exists   bool
	Items    int
	Missing  int
	Obsolete int
	Stale    int
	Modified time.Time
}

func collectStatus(rt config.ResolvedTarget, source *resource.Set, lock *lockfile.LockFile) ([]langStatus, error) {
	var rows []langStatus
	for _, lang := range filterOutLang(rt.Languages, rt.SourceLang) {
		path := rt.TargetPath(lang)
		row := langStatus{
			Lang: lang,
			Name: langmeta.Resolve(lang).Name,
			File: rt.RelPath(path),
		}
		info, err := os.Stat(path)
		if err != nil {
			row.Missing = source.Len()
			rows = append(rows, row)
			continue
		}
		doc, err := resfile.Load(path, rt.Format)
		if err != nil {
			return nil, err
		}
		target := doc.Resources()
		row.Exists = true
		row.Items = target.Len()
		row.Missing = len(resource.Missing(source, target))
		row.Obsolete = len(resource.Obsolete(source, target))
		row.Stale = len(lock.Stale(lockfile.TargetKey(row.File), source, target))
		row.Modified = info.ModTime()
		rows = append(rows, row)
	}
	return rows, nil
}

func runStatus(out io.Writer, filter []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	targets, err := selectTargets(proj.targets, filter)
	if err != nil {
		return err
	}

	for _, rt := range targets {
		source, err := loadSource(rt)
		if err != nil {
			return err
		}
		rows, err := collectStatus(rt, source, proj.lock)
		if err != nil {
			return err
		}
		printStatusTable(out, rt, source.Len(), rows)
	}
	return nil
}

func printStatusTable(out io.Writer, rt config.ResolvedTarget, sourceItems int, rows []langStatus) {
	headerColor.Fprintf(out, "%s", rt.Target.Name)
	fmt.Fprintf(out, "  %s (%s, %s, %d %s)\n", rt.RelPath(rt.SourcePath), rt.Format, rt.SourceLang, sourceItems, i18n.T("items"))

	fileWidth := len("File")
	for _, r := range rows {
		if len(r.File) > fileWidth {
			fileWidth = len(r.File)
		}
	}
	line := strings.Repeat("─", 10+1+30+1+fileWidth+1+6+1+8+1+9+1+6+1+16)
	fmt.Fprintln(out, line)
	fmt.Fprintf(out, "%-10s %-30s %-*s %6s %8s %9s %6s %-16s\n",
		i18n.T("Code"), i18n.T("Name"), fileWidth, i18n.T("File"), i18n.T("Items"), i18n.T("Missing"), i18n.T("Obsolete"), i18n.T("Stale"), i18n.T("Updated"))
	fmt.Fprintln(out, line)

	var gaps []string
	for _, r := range rows {
		if !r.Exists {
			fmt.Fprintf(out, "%-10s %-30s %-*s %6s %8d %9s %6s %-16s\n",
				r.Lang, truncate(r.Name, 30), fileWidth, r.File, i18n.T("none"), r.Missing, "-", "-", "-")
			gaps = append(gaps, r.Lang)
			continue
		}
		fmt.Fprintf(out, "%-10s %-30s %-*s %6d %8d %9d %6d %-16s\n",
			r.Lang, truncate(r.Name, 30), fileWidth, r.File, r.Items, r.Missing, r.Obsolete, r.Stale, r.Modified.Format("2006-01-02 15:04"))
		if r.Missing > 0 || r.Stale > 0 {
			gaps = append(gaps, r.Lang)
		}
	}
	fmt.Fprintln(out, line)
	if len(gaps) > 0 {
		fmt.Fprintf(out, i18n.T("Needs translation: %s")+"\n", strings.Join(gaps, ", "))
	}
	fmt.Fprintln(out)
}

// ---------------------------------------------------------------------------
// cleanup (remove obsolete entries)
// ---------------------------------------------------------------------------

func newCleanupCmd() *cobra.Command {
	var (
		targets, langs string
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove entries the source file no longer has",
		Long: `Remove from every translated file the keys that no longer exist in the
source file. Remaining entries keep their order, and comments and other
content of the file are preserved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(splitList(targets), splitList(langs), dryRun)
		},
	}
	cmd.Flags().StringVar(&targets, "target", "", "Targets to clean (comma-separated names, default: all)")
	cmd.Flags().StringVar(&langs, "lang", "", "Languages to clean (comma-separated, default: all configured)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List obsolete keys without changing files")
	return cmd
}

func runCleanup(targetFilter, langFilter []string, dryRun bool) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	targets, err := selectTargets(proj.targets, targetFilter)
	if err != nil {
		return err
	}

	removed := 0
	for _, rt := range targets {
		source, err := loadSource(rt)
		if err != nil {
			return err
		}
		for _, lang := range targetLanguages(rt, langFilter) {
			path := rt.TargetPath(lang)
			if !fileExists(path) {
				continue
			}
			rel := rt.RelPath(path)
			doc, err := resfile.Load(path, rt.Format)
			if err != nil {
				return err
			}
			target := doc.Resources()
			obsolete := resource.Obsolete(source, target)
			if len(obsolete) == 0 {
				if verbose {
					logInfo(i18n.T("%s: nothing to remove"), rel)
				}
				continue
			}
			removed += len(obsolete)
			if dryRun {
				logInfo(i18n.T("%s: would remove %d keys: %s"), rel, len(obsolete), describeKeys(obsolete, 10))
				continue
			}
			doc.SetResources(resource.Prune(source, target))
			if err := resfile.Save(doc, path); err != nil {
				return err
			}
			proj.lock.Clean(lockfile.TargetKey(rel), source.Keys())
			logSuccess(i18n.T("%s: removed %d keys"), rel, len(obsolete))
		}
	}

	if dryRun {
		logInfo(i18n.T("Obsolete keys: %d"), removed)
		return nil
	}
	if removed == 0 {
		logSuccess("%s", i18n.T("No obsolete entries found"))
		return nil
	}
	return proj.lock.Save()
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	var (
		remote bool
		pf     providerFlags
	)

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List known language codes",
		Long: `List the language codes resxlate has display names for. With --remote the
languages supported by Azure Translator are fetched instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				return runRemoteLanguages(cmd.OutOrStdout(), pf)
			}
			return runLanguages(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Query Azure Translator for its supported languages")
	addProviderFlags(cmd, &pf)
	return cmd
}

func runLanguages(out io.Writer) error {
	for _, code := range langmeta.Codes() {
		fmt.Fprintf(out, "%-10s %s\n", code, langmeta.Registry[code])
	}

	// Examples are optional: a project is not required to list languages.
	cfg, err := config.Load(rootDir)
	if err != nil || len(cfg.ExampleLanguages) == 0 {
		return nil
	}
	var examples []string
	for _, l := range cfg.ExampleLanguages {
		examples = append(examples, fmt.Sprintf("%s (%s)", l, langmeta.Resolve(l).Name))
	}
	fmt.Fprintf(out, "\n%s %s\n", i18n.T("Example languages:"), strings.Join(examples, ", "))
	return nil
}

func runRemoteLanguages(out io.Writer, pf providerFlags) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		// Remote listing works without a project.
		cfg, err = config.Parse(nil)
		if err != nil {
			return err
		}
		cfg.ApplyEnv(os.LookupEnv)
	}
	pf.provider = "azure"
	if err := pf.apply(cfg); err != nil {
		return err
	}
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf(i18n.T("listing remote languages requires an API key (%s or --api-key)"), config.EnvAPIKey)
	}
	client, err := azure.New(azure.Config{
		Key:      cfg.Provider.APIKey,
		Region:   cfg.Provider.Region,
		Endpoint: cfg.Provider.Endpoint,
		Timeout:  cfg.Provider.Timeout,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	langs, err := client.Languages(ctx)
	if err != nil {
		return err
	}
	for _, l := range langs {
		fmt.Fprintf(out, "%-10s %-30s %s\n", l.Code, l.Name, l.NativeName)
	}
	logInfo(i18n.N("%d language", "%d languages", len(langs)), len(langs))
	return nil
}
