package quality

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"

	"github.com/minios-linux/resxlate/resource"
	"github.com/minios-linux/resxlate/service"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abcd", "wxyz", 4},
		{"Hello", "hello", 1},
		{"größe", "grösse", 2},
		{"flaw", "lawn", 2},
	}
	for _, tc := range tests {
		if got := Levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimilarityAndRatingBoundaries(t *testing.T) {
	tests := []struct {
		a, b       string
		similarity float64
		rating     int
	}{
		{"hello", "hello", 1.0, 5},
		{"", "", 1.0, 5},
		{"abcd", "wxyz", 0.0, 1},
		{"abcd", "abcx", 0.75, 4},
		{"abcd", "abxy", 0.5, 3},
		{"abcd", "axyz", 0.25, 2},
	}
	for _, tc := range tests {
		sim := Similarity(tc.a, tc.b)
		if sim != tc.similarity {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tc.a, tc.b, sim, tc.similarity)
		}
		if r := Rating(sim); r != tc.rating {
			t.Errorf("Rating(%v) = %d, want %d", sim, r, tc.rating)
		}
	}
	if Rating(0.9) != 5 || Rating(0.8999) != 4 || Rating(0.2499) != 1 {
		t.Error("threshold edges misclassified")
	}
}

// backTranslator maps target values to canned back-translations.
type backTranslator struct {
	answers map[string]string
	fail    map[string]bool
	calls   []string
}

func (b *backTranslator) Translate(_ context.Context, text, targetLang, sourceLang string) (string, error) {
	b.calls = append(b.calls, text+"|"+targetLang+"|"+sourceLang)
	if b.fail[text] {
		return "", &service.Error{Code: "500000", Message: "internal error", Status: 500}
	}
	return b.answers[text], nil
}

func TestScore(t *testing.T) {
	source := resource.MustFromEntries(
		resource.Entry{Key: "a", Value: "Hello"},
		resource.Entry{Key: "b", Value: "Good morning"},
		resource.Entry{Key: "c", Value: "Only in source"},
		resource.Entry{Key: "d", Value: "Blank target"},
	)
	target := resource.MustFromEntries(
		resource.Entry{Key: "b", Value: "Guten Morgen"},
		resource.Entry{Key: "a", Value: "Hallo"},
		resource.Entry{Key: "d", Value: "   "},
		resource.Entry{Key: "z", Value: "Nur im Ziel"},
	)
	svc := &backTranslator{answers: map[string]string{"Hallo": "Hello", "Guten Morgen": "Good tomorrow"}}

	results, err := Score(context.Background(), svc, source, target, Options{SourceLanguage: "en", TargetLanguage: "de"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(results) != 2 || results[0].Key != "a" || results[1].Key != "b" {
		t.Fatalf("results = %+v, want a then b", results)
	}
	if results[0].Rating != 5 {
		t.Errorf("a rating = %d, want 5", results[0].Rating)
	}
	wantCalls := []string{"Hallo|en|de", "Guten Morgen|en|de"}
	if diff := cmp.Diff(wantCalls, svc.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestScore_SkipOnErrorAggregates(t *testing.T) {
	source := resource.MustFromEntries(
		resource.Entry{Key: "a", Value: "One"},
		resource.Entry{Key: "b", Value: "Two"},
		resource.Entry{Key: "c", Value: "Three"},
	)
	target := resource.MustFromEntries(
		resource.Entry{Key: "a", Value: "Eins"},
		resource.Entry{Key: "b", Value: "Zwei"},
		resource.Entry{Key: "c", Value: "Drei"},
	)
	svc := &backTranslator{
		answers: map[string]string{"Eins": "One", "Drei": "Three"},
		fail:    map[string]bool{"Zwei": true},
	}
	var skippedKeys []string
	results, err := Score(context.Background(), svc, source, target, Options{
		SourceLanguage: "en",
		OnSkip:         func(key string, _ error) { skippedKeys = append(skippedKeys, key) },
	})
	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2 scored keys", results)
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) != 1 {
		t.Fatalf("error = %v, want one aggregated failure", err)
	}
	var ke *KeyError
	if !errors.As(merr.Errors[0], &ke) || ke.Key != "b" {
		t.Errorf("skipped error = %v, want KeyError for b", merr.Errors[0])
	}
	if _, ok := service.AsError(merr.Errors[0]); !ok {
		t.Error("skipped error lost the service error")
	}
	if diff := cmp.Diff([]string{"b"}, skippedKeys); diff != "" {
		t.Errorf("OnSkip mismatch (-want +got):\n%s", diff)
	}
	// auto is used when the target language is unknown
	if svc.calls[0] != "Eins|en|auto" {
		t.Errorf("first call = %q", svc.calls[0])
	}
}

func TestScore_AbortOnError(t *testing.T) {
	source := resource.MustFromEntries(resource.Entry{Key: "a", Value: "One"}, resource.Entry{Key: "b", Value: "Two"})
	target := resource.MustFromEntries(resource.Entry{Key: "a", Value: "Eins"}, resource.Entry{Key: "b", Value: "Zwei"})
	svc := &backTranslator{fail: map[string]bool{"Eins": true}}
	results, err := Score(context.Background(), svc, source, target, Options{SourceLanguage: "en", OnError: AbortOnError})
	var ke *KeyError
	if !errors.As(err, &ke) || ke.Key != "a" {
		t.Fatalf("error = %v, want KeyError for a", err)
	}
	if len(results) != 0 || len(svc.calls) != 1 {
		t.Errorf("results = %v, calls = %v; want abort after first call", results, svc.calls)
	}
}

func TestScore_RequiresSourceLanguage(t *testing.T) {
	_, err := Score(context.Background(), service.Identity, resource.New(), resource.New(), Options{})
	if !errors.Is(err, ErrNoSourceLanguage) {
		t.Fatalf("error = %v", err)
	}
}

func TestSortAverageBelow(t *testing.T) {
	results := []Result{{Key: "a", Rating: 5}, {Key: "b", Rating: 2}, {Key: "c", Rating: 5}, {Key: "d", Rating: 1}}
	SortByRating(results)
	var keys []string
	for _, r := range results {
		keys = append(keys, r.Key)
	}
	if diff := cmp.Diff([]string{"d", "b", "a", "c"}, keys); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if avg := Average(results); avg != 3.25 {
		t.Errorf("Average = %v, want 3.25", avg)
	}
	if Average(nil) != 0 {
		t.Error("Average(nil) should be 0")
	}
	if got := len(Below(results, 3)); got != 2 {
		t.Errorf("Below(3) = %d results, want 2", got)
	}
	if _, err := ParseErrorPolicy("abort"); err != nil {
		t.Error(err)
	}
	if _, err := ParseErrorPolicy("sometimes"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
