package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/resxlate/config"
	"github.com/minios-linux/resxlate/i18n"
	"github.com/minios-linux/resxlate/langmeta"
	"github.com/minios-linux/resxlate/lockfile"
	"github.com/minios-linux/resxlate/resfile"
	"github.com/minios-linux/resxlate/resource"
	"github.com/minios-linux/resxlate/service"
	"github.com/minios-linux/resxlate/translate"
)

// Translation modes.
const (
	modeMissing = "missing"
	modeAll     = "all"
)

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	targets, langs string
	mode           string
	partial        string
	dryRun         bool
	pf             providerFlags
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate resource files",
		Long: `Translate the configured resource files into every target language.

By default only the entries a target file lacks are translated and appended;
existing translations are never changed. With --mode all the whole source
file is translated and the target file is rewritten.

Examples:
  # Add missing German and French entries using Azure Translator
  export RESXLATE_API_KEY=...
  resxlate translate --lang de,fr

  # Retranslate everything for one target with Google Translate
  resxlate translate --target app --mode all --provider google

  # Show what would be translated
  resxlate translate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(a)
		},
	}

	cmd.Flags().StringVar(&a.targets, "target", "", "Targets to translate (comma-separated names, default: all)")
	cmd.Flags().StringVar(&a.langs, "lang", "", "Languages to translate (comma-separated, default: all configured)")
	cmd.Flags().StringVar(&a.mode, "mode", modeMissing, "What to translate: missing (append absent keys) or all (rewrite target)")
	cmd.Flags().StringVar(&a.partial, "partial", "", "On failure keep or discard entries translated so far (default from config: keep)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show what would be translated without calling the service")
	addProviderFlags(cmd, &a.pf)

	_ = cmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			modeMissing + "\tTranslate only keys the target lacks",
			modeAll + "\tTranslate every key and rewrite the target",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTranslate(a translateArgs) error {
	if a.mode != modeMissing && a.mode != modeAll {
		return fmt.Errorf(i18n.T("unknown mode %q (valid: missing, all)"), a.mode)
	}

	proj, err := loadProject()
	if err != nil {
		return err
	}
	if a.partial != "" {
		proj.cfg.Partial = a.partial
	}
	if err := a.pf.apply(proj.cfg); err != nil {
		return err
	}
	targets, err := selectTargets(proj.targets, splitList(a.targets))
	if err != nil {
		return err
	}

	if a.dryRun {
		return dryRunTranslate(targets, a)
	}

	svc, closeSvc, err := openService(proj.cfg)
	if err != nil {
		return err
	}
	defer closeSvc()

	ctx, cancel := interruptContext()
	defer cancel()

	logInfo(i18n.T("Provider: %s, mode: %s"), proj.cfg.Provider.Name, a.mode)

	var failed, done int
	for _, rt := range targets {
		source, err := loadSource(rt)
		if err != nil {
			logError("%s: %v", rt.Target.Name, err)
			failed++
			continue
		}
		langs := targetLanguages(rt, splitList(a.langs))
		if len(langs) == 0 {
			logWarning(i18n.T("%s: no languages to translate"), rt.Target.Name)
			continue
		}

		for _, lang := range langs {
			if ctx.Err() != nil {
				break
			}
			opts := translate.Options{
				Language:       lang,
				SourceLanguage: rt.SourceLang,
				Partial:        proj.cfg.PartialPolicy(),
				Verbose:        verbose,
				OnLog: func(format string, args ...any) {
					logInfo(format, args...)
				},
				OnError: func(format string, args ...any) {
					logError(format, args...)
				},
			}
			err := translateTarget(ctx, svc, proj.lock, rt, source, lang, a.mode, opts)
			switch {
			case err == nil:
				done++
			case errors.Is(err, context.Canceled):
				logWarning("%s", i18n.T("Translation interrupted"))
			default:
				logError("%s [%s]: %v", rt.Target.Name, lang, err)
				failed++
			}
		}
	}

	if err := proj.lock.Save(); err != nil {
		logWarning("%v", err)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if failed > 0 {
		return fmt.Errorf(i18n.N("%d translation failed", "%d translations failed", failed), failed)
	}
	logSuccess(i18n.T("Translation complete! (%d files)"), done)
	return nil
}

func loadSource(rt config.ResolvedTarget) (*resource.Set, error) {
	doc, err := resfile.Load(rt.SourcePath, rt.Format)
	if err != nil {
		return nil, err
	}
	return doc.Resources(), nil
}

// translateTarget updates one target file for one language and records the
// translated keys in the lock file.
func translateTarget(ctx context.Context, svc service.Service, lock *lockfile.LockFile, rt config.ResolvedTarget, source *resource.Set, lang, mode string, opts translate.Options) error {
	path := rt.TargetPath(lang)
	rel := rt.RelPath(path)
	lockKey := lockfile.TargetKey(rel)

	label := fmt.Sprintf("%s (%s)", filepath.Base(path), langmeta.Resolve(lang).Name)

	if mode == modeAll {
		if source.Len() == 0 {
			logWarning(i18n.T("%s: source file has no entries"), rt.Target.Name)
			return nil
		}
		onProgress, finish := progressSink(label, source.Len())
		opts.OnProgress = onProgress
		out, err := translate.TranslateAll(ctx, svc, source, opts)
		finish()
		if err != nil {
			return err
		}
		// The target is rewritten from the source document so keys, order
		// and surrounding content follow the source.
		doc, err := resfile.Load(rt.SourcePath, rt.Format)
		if err != nil {
			return err
		}
		doc.SetResources(out)
		resfile.Localize(doc, lang)
		if err := resfile.Save(doc, path); err != nil {
			return err
		}
		lock.RecordAll(lockKey, source)
		logSuccess(i18n.T("%s: translated %d entries"), rel, source.Len())
		return nil
	}

	doc, existed, err := resfile.LoadOrNew(path, rt.Format)
	if err != nil {
		return err
	}
	missing := resource.Missing(source, doc.Resources())
	if len(missing) == 0 {
		logSuccess(i18n.T("%s: up to date"), rel)
		return nil
	}
	onProgress, finish := progressSink(label, len(missing))
	opts.OnProgress = onProgress
	res, err := translate.ReconcileMissing(ctx, svc, source, doc.Resources(), opts)
	finish()

	if res.Set != nil && len(res.Added) > 0 {
		doc.SetResources(res.Set)
		if serr := resfile.Save(doc, path); serr != nil {
			return errors.Join(err, serr)
		}
		lock.Record(lockKey, source, res.Added)
		if err != nil {
			logWarning(i18n.T("%s: saved %d of %d entries before the failure"), rel, len(res.Added), len(res.Missing))
		} else if existed {
			logSuccess(i18n.T("%s: added %d entries"), rel, len(res.Added))
		} else {
			logSuccess(i18n.T("%s: created with %d entries"), rel, len(res.Added))
		}
	}
	if len(res.SkippedEmpty) > 0 && verbose {
		logInfo(i18n.T("%s: skipped %d keys with empty source value"), rel, len(res.SkippedEmpty))
	}
	return err
}

func dryRunTranslate(targets []config.ResolvedTarget, a translateArgs) error {
	total := 0
	for _, rt := range targets {
		source, err := loadSource(rt)
		if err != nil {
			logError("%s: %v", rt.Target.Name, err)
			continue
		}
		for _, lang := range targetLanguages(rt, splitList(a.langs)) {
			path := rt.TargetPath(lang)
			keys := source.Keys()
			note := ""
			if a.mode == modeMissing {
				doc, existed, err := resfile.LoadOrNew(path, rt.Format)
				if err != nil {
					logError("%s: %v", rt.RelPath(path), err)
					continue
				}
				keys = resource.Missing(source, doc.Resources())
				if !existed {
					note = i18n.T(" (file will be created)")
				}
			}
			calls := translate.CountCalls(source, keys)
			total += calls
			logInfo(i18n.T("%s [%s, %s]: %d entries, %d service calls%s"),
				rt.RelPath(path), lang, langmeta.Resolve(lang).Name, len(keys), calls, note)
		}
	}
	logInfo(i18n.T("Total service calls: %d"), total)
	return nil
}

// describeKeys shortens a key list for log output.
func describeKeys(keys []string, max int) string {
	if len(keys) <= max {
		return strings.Join(keys, ", ")
	}
	return strings.Join(keys[:max], ", ") + fmt.Sprintf(", … (+%d)", len(keys)-max)
}
