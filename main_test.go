package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/resxlate/config"
	"github.com/minios-linux/resxlate/lockfile"
	"github.com/minios-linux/resxlate/resfile"
	"github.com/minios-linux/resxlate/resource"
	"github.com/minios-linux/resxlate/service"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestSplitList(t *testing.T) {
	got := splitList(" de, fr,,pt-BR ")
	want := []string{"de", "fr", "pt-BR"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitList() = %#v, want %#v", got, want)
	}
	if got := splitList(""); got != nil {
		t.Fatalf("splitList(\"\") = %#v, want nil", got)
	}
}

func TestIntersectLanguages(t *testing.T) {
	available := []string{"en", "fr", "de", "es"}
	filter := []string{" fr ", "es", "it"}
	want := []string{"fr", "es"}

	if got := intersectLanguages(available, filter); !reflect.DeepEqual(got, want) {
		t.Fatalf("intersectLanguages() = %#v, want %#v", got, want)
	}
}

func TestFilterOutLang(t *testing.T) {
	langs := []string{"en", "fr", "en", "de"}
	want := []string{"fr", "de"}

	if got := filterOutLang(langs, "en"); !reflect.DeepEqual(got, want) {
		t.Fatalf("filterOutLang() = %#v, want %#v", got, want)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("ok"), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	if !fileExists(filePath) {
		t.Fatalf("fileExists(file) = false, want true")
	}
	if fileExists(dir) {
		t.Fatalf("fileExists(directory) = true, want false")
	}
	if fileExists(filepath.Join(dir, "missing.txt")) {
		t.Fatalf("fileExists(missing) = true, want false")
	}
}

func TestTruncateAndDescribeKeys(t *testing.T) {
	if got := truncate("Grüße\nan alle", 20); got != "Grüße an alle" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abcdefgh", 5); got != "abcd…" {
		t.Errorf("truncate() = %q, want %q", got, "abcd…")
	}
	if got := describeKeys([]string{"a", "b"}, 3); got != "a, b" {
		t.Errorf("describeKeys() = %q", got)
	}
	if got := describeKeys([]string{"a", "b", "c", "d"}, 2); got != "a, b, … (+2)" {
		t.Errorf("describeKeys() = %q", got)
	}
}

func TestRatingCell(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	if got := ratingCell(3); got != "★★★☆☆  " {
		t.Fatalf("ratingCell(3) = %q", got)
	}
}

func TestSelectTargets(t *testing.T) {
	targets := []config.ResolvedTarget{
		{Target: config.Target{Name: "app"}},
		{Target: config.Target{Name: "web"}},
	}
	got, err := selectTargets(targets, []string{"web"})
	if err != nil || len(got) != 1 || got[0].Target.Name != "web" {
		t.Fatalf("selectTargets(web) = %v, %v", got, err)
	}
	if _, err := selectTargets(targets, []string{"nope"}); err == nil {
		t.Fatal("selectTargets(nope) should fail")
	}
	if got, _ := selectTargets(targets, nil); len(got) != 2 {
		t.Fatalf("selectTargets(nil) = %d targets, want 2", len(got))
	}
}

// ---------------------------------------------------------------------------
// Commands end to end
// ---------------------------------------------------------------------------

const projectConfig = `source_lang: en
languages: [en, de]
provider:
  name: google
targets:
  - name: app
    source: Strings.resx
    target: Strings.{lang}.resx
`

const resxHeader = `<?xml version="1.0" encoding="utf-8"?>
<root>
`

func resxDoc(entries ...string) string {
	var b strings.Builder
	b.WriteString(resxHeader)
	for i := 0; i+1 < len(entries); i += 2 {
		b.WriteString(`  <data name="` + entries[i] + `" xml:space="preserve"><value>` + entries[i+1] + "</value></data>\n")
	}
	b.WriteString("</root>\n")
	return b.String()
}

type fakeBackend struct {
	calls     int
	translate func(text, targetLang string) string
}

func (f *fakeBackend) Translate(_ context.Context, text, targetLang, _ string) (string, error) {
	f.calls++
	return f.translate(text, targetLang), nil
}

func useBackend(t *testing.T, svc service.Service) {
	t.Helper()
	old := newBackend
	newBackend = func(*config.File) (service.Service, error) { return svc, nil }
	t.Cleanup(func() { newBackend = old })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func run(t *testing.T, dir string, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetOut(&strings.Builder{})
	cmd.SetArgs(append([]string{"--root", dir, "--no-color", "--ui-lang", "en"}, args...))
	return cmd.Execute()
}

func loadSet(t *testing.T, path string) *resource.Set {
	t.Helper()
	doc, err := resfile.Load(path, "")
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}
	return doc.Resources()
}

func TestTranslateStatusCleanup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), projectConfig)
	writeFile(t, filepath.Join(dir, "Strings.resx"), resxDoc(
		"Hello", "Hello &lt;b&gt;world&lt;/b&gt;",
		"Bye", "Bye",
		"Empty", "",
	))

	backend := &fakeBackend{translate: func(text, _ string) string { return strings.ToUpper(text) }}
	useBackend(t, backend)

	// First run creates the German file.
	if err := run(t, dir, "translate"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	target := filepath.Join(dir, "Strings.de.resx")
	got := loadSet(t, target)
	if diff := cmp.Diff([]string{"Hello", "Bye"}, got.Keys()); diff != "" {
		t.Errorf("translated keys mismatch (-want +got):\n%s", diff)
	}
	if v := got.Value("Hello"); v != "HELLO <b>WORLD</b>" {
		t.Errorf("Hello = %q, want markup kept", v)
	}
	if fileExists(filepath.Join(dir, "Strings.en.resx")) {
		t.Error("source language must not be translated")
	}
	if backend.calls != 3 {
		t.Errorf("backend calls = %d, want 3", backend.calls)
	}

	// Nothing missing: no calls.
	if err := run(t, dir, "translate"); err != nil {
		t.Fatalf("second translate: %v", err)
	}
	if backend.calls != 3 {
		t.Errorf("backend calls after no-op run = %d, want 3", backend.calls)
	}

	// Source changes: a new key and an edited value.
	writeFile(t, filepath.Join(dir, "Strings.resx"), resxDoc(
		"Hello", "Hello &lt;b&gt;world&lt;/b&gt;",
		"Bye", "Goodbye",
		"New", "New",
	))
	if err := run(t, dir, "translate", "--lang", "de"); err != nil {
		t.Fatalf("third translate: %v", err)
	}
	got = loadSet(t, target)
	if diff := cmp.Diff([]string{"Hello", "Bye", "New"}, got.Keys()); diff != "" {
		t.Errorf("keys after reconcile mismatch (-want +got):\n%s", diff)
	}
	if v := got.Value("Bye"); v != "BYE" {
		t.Errorf("existing translation changed: Bye = %q", v)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	targets, err := cfg.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	lock, err := lockfile.Load(dir)
	if err != nil {
		t.Fatalf("lockfile.Load: %v", err)
	}
	source := loadSet(t, filepath.Join(dir, "Strings.resx"))
	rows, err := collectStatus(targets[0], source, lock)
	if err != nil {
		t.Fatalf("collectStatus: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("status rows = %d, want 1 (source language excluded)", len(rows))
	}
	row := rows[0]
	if row.Lang != "de" || !row.Exists || row.Items != 3 || row.Missing != 0 || row.Obsolete != 0 || row.Stale != 1 {
		t.Errorf("status row = %+v, want de with 3 items and 1 stale", row)
	}
	if err := run(t, dir, "status"); err != nil {
		t.Fatalf("status: %v", err)
	}

	// Hello disappears from the source.
	writeFile(t, filepath.Join(dir, "Strings.resx"), resxDoc(
		"Bye", "Goodbye",
		"New", "New",
	))
	if err := run(t, dir, "cleanup", "--dry-run"); err != nil {
		t.Fatalf("cleanup --dry-run: %v", err)
	}
	if !loadSet(t, target).Has("Hello") {
		t.Fatal("dry run removed a key")
	}
	if err := run(t, dir, "cleanup"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if diff := cmp.Diff([]string{"Bye", "New"}, loadSet(t, target).Keys()); diff != "" {
		t.Errorf("keys after cleanup mismatch (-want +got):\n%s", diff)
	}

	// Nothing left to remove.
	if err := run(t, dir, "cleanup"); err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
}

func TestTranslateModeAllAndDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), projectConfig)
	writeFile(t, filepath.Join(dir, "Strings.resx"), resxDoc("A", "one", "B", "two"))
	writeFile(t, filepath.Join(dir, "Strings.de.resx"), resxDoc("A", "alt", "Old", "weg"))

	backend := &fakeBackend{translate: func(text, lang string) string { return lang + ":" + text }}
	useBackend(t, backend)

	if err := run(t, dir, "translate", "--dry-run", "--mode", "all"); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("dry run called the backend %d times", backend.calls)
	}

	if err := run(t, dir, "translate", "--mode", "all"); err != nil {
		t.Fatalf("translate --mode all: %v", err)
	}
	got := loadSet(t, filepath.Join(dir, "Strings.de.resx"))
	want := resource.MustFromEntries(
		resource.Entry{Key: "A", Value: "de:one", PreserveWhitespace: true},
		resource.Entry{Key: "B", Value: "de:two", PreserveWhitespace: true},
	)
	if diff := cmp.Diff(want.Entries(), got.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	if err := run(t, dir, "translate", "--mode", "sometimes"); err == nil {
		t.Fatal("unknown mode should fail")
	}
}

func TestTranslateModeAllFollowsSourceOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), projectConfig)
	writeFile(t, filepath.Join(dir, "Strings.resx"), resxDoc("A", "one", "B", "two", "C", "three"))
	target := filepath.Join(dir, "Strings.de.resx")
	writeFile(t, target, strings.Replace(resxDoc("C", "drei", "B", "zwei"), "<root>\n", "<root>\n  <!-- hand edited -->\n", 1))

	useBackend(t, &fakeBackend{translate: func(text, lang string) string { return lang + ":" + text }})

	if err := run(t, dir, "translate", "--mode", "all"); err != nil {
		t.Fatalf("translate --mode all: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, loadSet(t, target).Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "hand edited") {
		t.Error("target content survived a full retranslation")
	}
}

func TestQualityFailBelow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), projectConfig)
	writeFile(t, filepath.Join(dir, "Strings.resx"), resxDoc("Same", "Save", "Diff", "Bye"))
	writeFile(t, filepath.Join(dir, "Strings.de.resx"), resxDoc("Same", "Save", "Diff", "BYE"))

	// Back-translation returns the target value unchanged.
	useBackend(t, &fakeBackend{translate: func(text, _ string) string { return text }})

	if err := run(t, dir, "quality"); err != nil {
		t.Fatalf("quality: %v", err)
	}
	err := run(t, dir, "quality", "--fail-below", "3")
	if err == nil {
		t.Fatal("expected failure: Diff is rated 2")
	}
	if !strings.Contains(err.Error(), "rated below 3") {
		t.Errorf("error = %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var out strings.Builder
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "resxlate version ") {
		t.Errorf("version output = %q", out.String())
	}
}
