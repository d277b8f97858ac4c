// Package quality estimates translation quality by back-translation.
//
// Each target value is translated back into the source language and the
// result is compared to the original source value by normalized edit
// distance. The score says how well a translation survives the round trip,
// not whether it is correct.
package quality

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/minios-linux/resxlate/resource"
	"github.com/minios-linux/resxlate/service"
)

// Result is the rating of a single key.
type Result struct {
	Key string
	// Rating is 1 (poor) to 5 (excellent).
	Rating int
	// Similarity is the raw score in [0, 1].
	Similarity float64
	// BackTranslation is what the service returned for the target value.
	BackTranslation string
}

// ErrorPolicy decides what Score does when back-translating a key fails.
type ErrorPolicy int

const (
	// SkipOnError leaves the key out and goes on. All skipped failures are
	// returned together as a *multierror.Error.
	SkipOnError ErrorPolicy = iota
	// AbortOnError stops at the first failure.
	AbortOnError
)

// String returns the policy name used in configuration.
func (p ErrorPolicy) String() string {
	switch p {
	case SkipOnError:
		return "skip"
	case AbortOnError:
		return "abort"
	}
	return fmt.Sprintf("ErrorPolicy(%d)", int(p))
}

// ParseErrorPolicy parses "skip" or "abort". The empty string is skip.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "skip":
		return SkipOnError, nil
	case "abort":
		return AbortOnError, nil
	}
	return 0, fmt.Errorf("unknown error policy %q (want skip or abort)", s)
}

// Options controls a scoring run.
type Options struct {
	// SourceLanguage is the language of the source set and the
	// back-translation target.
	SourceLanguage string
	// TargetLanguage is the language of the target set. Empty means
	// auto-detect.
	TargetLanguage string
	OnError        ErrorPolicy
	// OnProgress is called after each scored key.
	OnProgress func(lang string, done, total int)
	// OnSkip is called for every key left out because of a service failure.
	OnSkip func(key string, err error)
}

// KeyError is a failure to back-translate one key.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string { return fmt.Sprintf("%s: %v", e.Key, e.Err) }

func (e *KeyError) Unwrap() error { return e.Err }

// ErrNoSourceLanguage is returned when Options.SourceLanguage is empty.
var ErrNoSourceLanguage = errors.New("source language is required for back-translation")

// Score rates each key present in both sets, in source order. Keys missing
// from either set and keys whose target value is blank are skipped
// silently. The service is called with the plain target value; markup is
// not parsed.
//
// With SkipOnError the returned results are complete for every key that
// could be scored and the error, if non-nil, lists every skipped key.
func Score(ctx context.Context, svc service.Service, source, target *resource.Set, opts Options) ([]Result, error) {
	if opts.SourceLanguage == "" {
		return nil, ErrNoSourceLanguage
	}

	type pair struct{ key, original, translated string }
	var todo []pair
	for _, e := range source.Entries() {
		t, ok := target.Get(e.Key)
		if !ok || strings.TrimSpace(t.Value) == "" {
			continue
		}
		todo = append(todo, pair{e.Key, e.Value, t.Value})
	}

	var (
		results []Result
		skipped *multierror.Error
	)
	for i, p := range todo {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		back, err := svc.Translate(ctx, p.translated, opts.SourceLanguage, service.SourceOrAuto(opts.TargetLanguage))
		if err != nil {
			err = service.Wrap(err)
			if opts.OnError == AbortOnError || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return results, &KeyError{Key: p.key, Err: err}
			}
			if opts.OnSkip != nil {
				opts.OnSkip(p.key, err)
			}
			skipped = multierror.Append(skipped, &KeyError{Key: p.key, Err: err})
		} else {
			sim := Similarity(p.original, back)
			results = append(results, Result{Key: p.key, Rating: Rating(sim), Similarity: sim, BackTranslation: back})
		}
		if opts.OnProgress != nil {
			opts.OnProgress(opts.TargetLanguage, i+1, len(todo))
		}
	}
	return results, skipped.ErrorOrNil()
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

// Levenshtein returns the edit distance between a and b, counted in code
// points. Comparison is case-sensitive.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	// Two rows are enough.
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Similarity returns 1 - distance/maxLen. Two empty strings are identical.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

// Rating maps a similarity to 1..5.
func Rating(similarity float64) int {
	switch {
	case similarity >= 0.90:
		return 5
	case similarity >= 0.75:
		return 4
	case similarity >= 0.50:
		return 3
	case similarity >= 0.25:
		return 2
	}
	return 1
}

// ---------------------------------------------------------------------------
// Reporting helpers
// ---------------------------------------------------------------------------

// SortByRating orders results worst first. Equal ratings keep their order.
func SortByRating(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Rating < results[j].Rating
	})
}

// Average returns the mean rating, or 0 for no results.
func Average(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += r.Rating
	}
	return float64(sum) / float64(len(results))
}

// Below returns the results rated under threshold.
func Below(results []Result, threshold int) []Result {
	var out []Result
	for _, r := range results {
		if r.Rating < threshold {
			out = append(out, r)
		}
	}
	return out
}
