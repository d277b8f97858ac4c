// Package translate runs resource sets through a translation service.
//
// TranslateAll produces a complete translation of a source set.
// ReconcileMissing only translates the keys a target set lacks and appends
// them, leaving every existing translation alone. Both work one entry at a
// time and stop at the first service failure.
package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/minios-linux/resxlate/markup"
	"github.com/minios-linux/resxlate/resource"
	"github.com/minios-linux/resxlate/service"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// PartialPolicy decides what ReconcileMissing returns when it fails after
// some entries were already translated.
type PartialPolicy int

const (
	// PartialKeep returns the entries appended before the failure together
	// with the error. The caller decides whether to save them.
	PartialKeep PartialPolicy = iota
	// PartialDiscard returns no set at all, like TranslateAll.
	PartialDiscard
)

// String returns the policy name used in configuration.
func (p PartialPolicy) String() string {
	switch p {
	case PartialKeep:
		return "keep"
	case PartialDiscard:
		return "discard"
	}
	return fmt.Sprintf("PartialPolicy(%d)", int(p))
}

// ParsePartialPolicy parses "keep" or "discard". The empty string is keep.
func ParsePartialPolicy(s string) (PartialPolicy, error) {
	switch s {
	case "", "keep":
		return PartialKeep, nil
	case "discard":
		return PartialDiscard, nil
	}
	return 0, fmt.Errorf("unknown partial policy %q (want keep or discard)", s)
}

// Options controls a translation run.
type Options struct {
	// Language is the target language code (e.g., "de", "pt-BR").
	Language string
	// SourceLanguage is the source language code. Empty means auto-detect.
	SourceLanguage string
	// Partial applies to ReconcileMissing failures.
	Partial PartialPolicy
	// OnProgress is called after each entry is processed.
	OnProgress func(lang string, done, total int)
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnError emits error messages during translation.
	OnError func(format string, args ...any)
	// Verbose enables per-entry logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) progress(done, total int) {
	if o.OnProgress != nil {
		o.OnProgress(o.Language, done, total)
	}
}

// ErrEmptySource is returned when the source set has no entries.
var ErrEmptySource = errors.New("source contains no translatable entries")

// ErrNoLanguage is returned when Options.Language is empty.
var ErrNoLanguage = errors.New("target language is required")

// EntryError reports the entry a translation run stopped at.
type EntryError struct {
	Key string
	Err error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("translating %q: %v", e.Key, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Full translation
// ---------------------------------------------------------------------------

// TranslateAll returns a new set with the same keys in the same order as
// source and every non-empty value translated into opts.Language. Empty
// values are copied unchanged. The first failure aborts the run and no set
// is returned.
func TranslateAll(ctx context.Context, svc service.Service, source *resource.Set, opts Options) (*resource.Set, error) {
	if opts.Language == "" {
		return nil, ErrNoLanguage
	}
	if source.Len() == 0 {
		return nil, ErrEmptySource
	}

	tr := markup.New(svc)
	out := source.Clone()
	entries := source.Entries()
	total := len(entries)

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.Value != "" {
			if opts.Verbose {
				opts.log("  [%d/%d] %s", i+1, total, e.Key)
			}
			translated, err := tr.Translate(ctx, e.Value, opts.Language, opts.SourceLanguage)
			if err != nil {
				opts.logError("Translation of %q into %s failed: %v", e.Key, opts.Language, err)
				return nil, &EntryError{Key: e.Key, Err: err}
			}
			if err := out.ReplaceValue(e.Key, translated); err != nil {
				return nil, err
			}
		}
		opts.progress(i+1, total)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Missing-entry reconciliation
// ---------------------------------------------------------------------------

// Result describes the outcome of ReconcileMissing.
type Result struct {
	// Set is the reconciled target. Nil only when a failure was discarded.
	Set *resource.Set
	// Missing lists the keys the target lacked, in source order.
	Missing []string
	// Added lists the keys appended, in order.
	Added []string
	// SkippedEmpty lists missing keys whose source value was empty.
	SkippedEmpty []string
	// NoMissing is true when the target already had every source key.
	NoMissing bool
}

// ReconcileMissing translates the source entries target does not have and
// returns a copy of target with them appended, each marked to preserve
// whitespace. A nil target counts as empty. Existing target entries are
// never changed, reordered or removed, and neither input is modified.
//
// When nothing is missing the result has NoMissing set and Set holds an
// unchanged copy of target. On failure the returned Result depends on
// opts.Partial.
func ReconcileMissing(ctx context.Context, svc service.Service, source, target *resource.Set, opts Options) (Result, error) {
	if opts.Language == "" {
		return Result{}, ErrNoLanguage
	}

	out := target.Clone()
	missing := resource.Missing(source, target)
	res := Result{Set: out, Missing: missing}
	if len(missing) == 0 {
		res.NoMissing = true
		return res, nil
	}

	tr := markup.New(svc)
	total := len(missing)
	for i, key := range missing {
		if err := ctx.Err(); err != nil {
			return opts.fail(res, err)
		}
		e, _ := source.Get(key)
		if e.Value == "" {
			res.SkippedEmpty = append(res.SkippedEmpty, key)
			opts.progress(i+1, total)
			continue
		}

		if opts.Verbose {
			opts.log("  [%d/%d] %s", i+1, total, key)
		}
		translated, err := tr.Translate(ctx, e.Value, opts.Language, opts.SourceLanguage)
		if err != nil {
			opts.logError("Translation of %q into %s failed: %v", key, opts.Language, err)
			return opts.fail(res, &EntryError{Key: key, Err: err})
		}
		if err := out.Append(resource.Entry{Key: key, Value: translated, PreserveWhitespace: true}); err != nil {
			return opts.fail(res, err)
		}
		res.Added = append(res.Added, key)
		opts.progress(i+1, total)
	}
	return res, nil
}

func (o *Options) fail(res Result, err error) (Result, error) {
	if o.Partial == PartialDiscard {
		return Result{}, err
	}
	if len(res.Added) > 0 {
		o.log("Keeping %d entries translated before the failure", len(res.Added))
	}
	return res, err
}

// ---------------------------------------------------------------------------
// Estimation
// ---------------------------------------------------------------------------

// CountCalls returns how many service calls translating the given keys of
// source would take. Keys missing from source count as zero.
func CountCalls(source *resource.Set, keys []string) int {
	n := 0
	for _, k := range keys {
		n += markup.CountRuns(source.Value(k))
	}
	return n
}
