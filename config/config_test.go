package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/resxlate/quality"
	"github.com/minios-linux/resxlate/resfile"
	"github.com/minios-linux/resxlate/translate"
)

const sample = `source_lang: en
languages: [de, fr]
provider:
  name: azure
  region: westeurope
  timeout: 45s
  max_retries: 5
cache:
  enabled: true
targets:
  - name: app
    source: Resources/Strings.resx
    target: Resources/Strings.{lang}.resx
  - name: android
    source: app/src/main/res/values/strings.xml
    target: app/src/main/res/values-{android}/strings.xml
    languages: [pt-BR]
  - name: web
    source: locales/en.yml
    target: locales/{lang}.yml
    format: yaml
    source_lang: en-GB
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return dir
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

func TestLoadDefaultsAndInheritance(t *testing.T) {
	dir := writeConfig(t, sample)
	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if f.Provider.Timeout != 45*time.Second || f.Provider.MaxRetries != 5 {
		t.Errorf("provider = %+v", f.Provider)
	}
	if f.PartialPolicy() != translate.PartialKeep {
		t.Errorf("partial policy = %v, want keep", f.PartialPolicy())
	}
	if f.QualityPolicy() != quality.SkipOnError {
		t.Errorf("quality policy = %v, want skip", f.QualityPolicy())
	}
	if f.Cache.Path != DefaultCachePath {
		t.Errorf("cache path = %q", f.Cache.Path)
	}

	app := f.Targets[0]
	if diff := cmp.Diff([]string{"de", "fr"}, app.Languages); diff != "" {
		t.Errorf("app languages mismatch (-want +got):\n%s", diff)
	}
	if app.SourceLang != "en" {
		t.Errorf("app source lang = %q", app.SourceLang)
	}
	if got := f.Targets[2].SourceLang; got != "en-GB" {
		t.Errorf("web source lang = %q, want override", got)
	}
	if diff := cmp.Diff([]string{"de", "fr", "pt-BR"}, f.AllLanguages()); diff != "" {
		t.Errorf("AllLanguages mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load(empty dir) = %v, want ErrNotFound", err)
	}
}

func TestParseValidation(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"bad yaml": {
			doc:  "targets: [",
			want: "parsing",
		},
		"no name": {
			doc:  "targets:\n  - source: a.resx\n    target: a.{lang}.resx\n",
			want: "has no name",
		},
		"duplicate name": {
			doc:  "targets:\n  - {name: a, source: a.resx, target: a.{lang}.resx}\n  - {name: a, source: b.resx, target: b.{lang}.resx}\n",
			want: "declared twice",
		},
		"no source": {
			doc:  "targets:\n  - {name: a, target: a.{lang}.resx}\n",
			want: "has no source",
		},
		"no placeholder": {
			doc:  "targets:\n  - {name: a, source: a.resx, target: a.de.resx}\n",
			want: "placeholder",
		},
		"unknown extension": {
			doc:  "targets:\n  - {name: a, source: a.json, target: a.{lang}.json}\n",
			want: "target \"a\"",
		},
		"unknown provider": {
			doc:  "provider: {name: deepl}\ntargets: []\n",
			want: "unknown provider",
		},
		"bad partial": {
			doc:  "partial: sometimes\n",
			want: "partial policy",
		},
		"bad quality policy": {
			doc:  "quality: {on_error: retry}\n",
			want: "error policy",
		},
		"bad threshold": {
			doc:  "quality: {fail_below: 7}\n",
			want: "fail_below",
		},
		"bad language": {
			doc:  "languages: [\"de DE\"]\n",
			want: "not a valid language code",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvRegion, "northeurope")
	t.Setenv(EnvEndpoint, "")

	dir := writeConfig(t, sample)
	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Provider.APIKey != "secret" {
		t.Errorf("api key = %q", f.Provider.APIKey)
	}
	if f.Provider.Region != "northeurope" {
		t.Errorf("region = %q, want env override", f.Provider.Region)
	}
	if f.Provider.Endpoint != "" {
		t.Errorf("empty env var should not override endpoint, got %q", f.Provider.Endpoint)
	}
}

func TestAPIKeyNotReadFromFile(t *testing.T) {
	f, err := Parse([]byte("provider:\n  name: azure\n  apikey: leaked\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Provider.APIKey != "" {
		t.Fatalf("api key read from file: %q", f.Provider.APIKey)
	}
}

// ---------------------------------------------------------------------------
// Resolving
// ---------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	dir := writeConfig(t, sample)
	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	targets, err := f.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(targets) != 3 {
		t.Fatalf("resolved %d targets, want 3", len(targets))
	}

	app := targets[0]
	if app.Format != resfile.FormatResx {
		t.Errorf("app format = %v", app.Format)
	}
	if want := filepath.Join(dir, "Resources", "Strings.resx"); app.SourcePath != want {
		t.Errorf("SourcePath = %q, want %q", app.SourcePath, want)
	}
	if want := filepath.Join(dir, "Resources", "Strings.de.resx"); app.TargetPath("de") != want {
		t.Errorf("TargetPath(de) = %q, want %q", app.TargetPath("de"), want)
	}
	if got := app.RelPath(app.TargetPath("fr")); got != filepath.Join("Resources", "Strings.fr.resx") {
		t.Errorf("RelPath = %q", got)
	}

	droid := targets[1]
	if droid.Format != resfile.FormatAndroid {
		t.Errorf("android format = %v", droid.Format)
	}
	if want := filepath.Join(dir, "app/src/main/res/values-pt-rBR/strings.xml"); droid.TargetPath("pt-BR") != want {
		t.Errorf("TargetPath(pt-BR) = %q, want %q", droid.TargetPath("pt-BR"), want)
	}

	if targets[2].Format != resfile.FormatYAML {
		t.Errorf("web format = %v", targets[2].Format)
	}
}

func TestExpandPathAndCachePath(t *testing.T) {
	if got := ExpandPath("res/{lang}/{android}.xml", "zh-TW"); got != "res/zh-TW/zh-rTW.xml" {
		t.Errorf("ExpandPath = %q", got)
	}
	f := &File{Cache: Cache{Path: MemoryCachePath}}
	if f.CachePath("/tmp") != MemoryCachePath {
		t.Errorf("memory cache path changed: %q", f.CachePath("/tmp"))
	}
	f.Cache.Path = "cache/x.db"
	if got := f.CachePath("/srv/app"); got != filepath.Join("/srv/app", "cache", "x.db") {
		t.Errorf("CachePath = %q", got)
	}
}
