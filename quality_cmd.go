package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/minios-linux/resxlate/config"
	"github.com/minios-linux/resxlate/i18n"
	"github.com/minios-linux/resxlate/langmeta"
	"github.com/minios-linux/resxlate/quality"
	"github.com/minios-linux/resxlate/resfile"
	"github.com/minios-linux/resxlate/resource"
)

// ---------------------------------------------------------------------------
// quality (back-translation check)
// ---------------------------------------------------------------------------

type qualityArgs struct {
	targets, langs string
	onError        string
	failBelow      int
	pf             providerFlags
}

func newQualityCmd() *cobra.Command {
	var a qualityArgs

	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Rate translations by back-translating them",
		Long: `Translate every target value back into the source language and compare
it with the source value. Each key gets a rating from 1 (poor) to 5
(excellent) based on edit-distance similarity:

  5  similarity >= 90%
  4  >= 75%
  3  >= 50%
  2  >= 25%
  1  below

Results are listed worst first. With --fail-below the command exits
non-zero when any rating is below the threshold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuality(cmd.OutOrStdout(), a)
		},
	}

	cmd.Flags().StringVar(&a.targets, "target", "", "Targets to check (comma-separated names, default: all)")
	cmd.Flags().StringVar(&a.langs, "lang", "", "Languages to check (comma-separated, default: all configured)")
	cmd.Flags().StringVar(&a.onError, "on-error", "", "When a key cannot be back-translated: skip or abort (default from config: skip)")
	cmd.Flags().IntVar(&a.failBelow, "fail-below", 0, "Fail when any rating is below this value (1-5, 0 = never)")
	addProviderFlags(cmd, &a.pf)

	return cmd
}

func runQuality(out io.Writer, a qualityArgs) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	if a.onError != "" {
		proj.cfg.Quality.OnError = a.onError
	}
	if a.failBelow != 0 {
		proj.cfg.Quality.FailBelow = a.failBelow
	}
	if err := a.pf.apply(proj.cfg); err != nil {
		return err
	}
	targets, err := selectTargets(proj.targets, splitList(a.targets))
	if err != nil {
		return err
	}

	svc, closeSvc, err := openService(proj.cfg)
	if err != nil {
		return err
	}
	defer closeSvc()

	ctx, cancel := interruptContext()
	defer cancel()

	threshold := proj.cfg.Quality.FailBelow
	belowTotal := 0
	for _, rt := range targets {
		source, err := loadSource(rt)
		if err != nil {
			return err
		}
		for _, lang := range targetLanguages(rt, splitList(a.langs)) {
			path := rt.TargetPath(lang)
			if !fileExists(path) {
				logWarning(i18n.T("%s: not translated yet, skipping"), rt.RelPath(path))
				continue
			}
			doc, err := resfile.Load(path, rt.Format)
			if err != nil {
				return err
			}
			target := doc.Resources()

			onProgress, finish := progressSink(rt.RelPath(path), countScorable(source, target))
			results, err := quality.Score(ctx, svc, source, target, quality.Options{
				SourceLanguage: rt.SourceLang,
				TargetLanguage: lang,
				OnError:        proj.cfg.QualityPolicy(),
				OnProgress:     onProgress,
			})
			finish()
			if err != nil {
				var merr *multierror.Error
				if !errors.As(err, &merr) {
					return err
				}
				logWarning(i18n.N("%s: %d key skipped", "%s: %d keys skipped", len(merr.Errors)), rt.RelPath(path), len(merr.Errors))
				for _, e := range merr.Errors {
					logWarning("  %v", e)
				}
			}

			quality.SortByRating(results)
			printQualityReport(out, rt, lang, results)
			if threshold > 0 {
				belowTotal += len(quality.Below(results, threshold))
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}

	if belowTotal > 0 {
		return fmt.Errorf(i18n.N("%d translation rated below %d", "%d translations rated below %d", belowTotal), belowTotal, threshold)
	}
	return nil
}

// countScorable is the number of keys Score will send to the service.
func countScorable(source, target *resource.Set) int {
	n := 0
	for _, k := range resource.Common(source, target) {
		if strings.TrimSpace(target.Value(k)) != "" {
			n++
		}
	}
	return n
}

func printQualityReport(out io.Writer, rt config.ResolvedTarget, lang string, results []quality.Result) {
	headerColor.Fprintf(out, "\n%s [%s, %s]\n", rt.Target.Name, lang, langmeta.Resolve(lang).Name)
	fmt.Fprintln(out, strings.Repeat("─", 72))
	if len(results) == 0 {
		fmt.Fprintln(out, i18n.T("No translated entries to rate."))
		return
	}
	fmt.Fprintf(out, "%-30s %-7s %-6s %s\n", i18n.T("Key"), i18n.T("Rating"), "Sim.", i18n.T("Back-translation"))
	for _, r := range results {
		fmt.Fprintf(out, "%-30s %s %5.0f%% %s\n", truncate(r.Key, 30), ratingCell(r.Rating), r.Similarity*100, truncate(r.BackTranslation, 40))
	}
	fmt.Fprintln(out, strings.Repeat("─", 72))
	fmt.Fprintf(out, i18n.T("Average rating: %.2f (%d keys)")+"\n", quality.Average(results), len(results))
}

// ratingCell renders a rating as colored stars padded to seven columns.
func ratingCell(rating int) string {
	stars := strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
	c := successColor
	switch {
	case rating <= 2:
		c = errorColor
	case rating == 3:
		c = warningColor
	}
	return c.Sprint(stars) + "  "
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
