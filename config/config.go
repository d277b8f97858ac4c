// Package config reads and validates the .resxlate.yaml configuration file.
//
// The file lists every translation target explicitly: a source resource
// file and a target path template per language. Nothing is auto-detected.
// Environment variables override the provider settings, and CLI flags
// override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/resxlate/langmeta"
	"github.com/minios-linux/resxlate/quality"
	"github.com/minios-linux/resxlate/resfile"
	"github.com/minios-linux/resxlate/translate"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .resxlate.yaml structure.
type File struct {
	// SourceLang is the language of the source files (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages is the default target language list for all targets.
	Languages []string `yaml:"languages,omitempty"`
	// ExampleLanguages are suggested in the languages listing.
	ExampleLanguages []string `yaml:"example_languages,omitempty"`
	Provider         Provider `yaml:"provider,omitempty"`
	Cache            Cache    `yaml:"cache,omitempty"`
	// Partial is what reconciling does with work done before a failure:
	// "keep" (default) or "discard".
	Partial string  `yaml:"partial,omitempty"`
	Quality Quality `yaml:"quality,omitempty"`
	Targets []Target `yaml:"targets"`
}

// Provider configures the translation backend.
type Provider struct {
	// Name is "azure" (default) or "google".
	Name     string `yaml:"name,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Region   string `yaml:"region,omitempty"`
	// Timeout is a Go duration string such as "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// MaxRetries is the number of retries for transient failures.
	// 0 uses the backend default, a negative value disables retrying.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// APIKey never comes from the file; see ApplyEnv.
	APIKey string `yaml:"-"`
}

// Cache configures the translation cache. It is off unless enabled here or
// on the command line.
type Cache struct {
	Enabled bool `yaml:"enabled,omitempty"`
	// Path is the SQLite database, relative to the config file
	// (default DefaultCachePath). "memory" keeps the cache in process.
	Path string `yaml:"path,omitempty"`
	// MemorySize bounds the in-process cache.
	MemorySize int `yaml:"memory_size,omitempty"`
}

// Quality configures the back-translation check.
type Quality struct {
	// OnError is "skip" (default) or "abort".
	OnError string `yaml:"on_error,omitempty"`
	// FailBelow makes the quality command fail when any rating (1-5) is
	// lower. 0 disables the check.
	FailBelow int `yaml:"fail_below,omitempty"`
}

// Target describes one source resource file and where its translations go.
type Target struct {
	// Name is a human-readable label shown in status/logs.
	Name string `yaml:"name"`
	// Source is the source resource file relative to the config file.
	Source string `yaml:"source"`
	// Target is the path template of the translated files. It must contain
	// {lang} (the language code) or {android} (the Android values-
	// qualifier, e.g. "pt-rBR").
	Target string `yaml:"target"`
	// Format overrides extension detection (resx, android, yaml, properties).
	Format string `yaml:"format,omitempty"`
	// Languages overrides the global language list for this target.
	Languages []string `yaml:"languages,omitempty"`
	// SourceLang overrides the global source language for this target.
	SourceLang string `yaml:"source_lang,omitempty"`
}

// Defaults.
const (
	DefaultSourceLang = "en"
	DefaultProvider   = "azure"
	DefaultCachePath  = ".resxlate-cache.db"
	// MemoryCachePath selects the in-process cache.
	MemoryCachePath = "memory"
)

// Providers lists the supported backend names.
var Providers = []string{"azure", "google"}

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey   = "RESXLATE_API_KEY"
	EnvRegion   = "RESXLATE_REGION"
	EnvEndpoint = "RESXLATE_ENDPOINT"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".resxlate.yaml"

// ErrNotFound is returned by Load when the directory has no config file.
var ErrNotFound = errors.New("no " + FileName + " found")

// Load reads, defaults and validates .resxlate.yaml from rootDir, then
// applies environment overrides.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", rootDir, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.ApplyEnv(os.LookupEnv)
	return f, nil
}

// Parse decodes, defaults and validates a config document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	f.setDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) setDefaults() {
	if f.SourceLang == "" {
		f.SourceLang = DefaultSourceLang
	}
	if f.Provider.Name == "" {
		f.Provider.Name = DefaultProvider
	}
	if f.Partial == "" {
		f.Partial = translate.PartialKeep.String()
	}
	if f.Quality.OnError == "" {
		f.Quality.OnError = quality.SkipOnError.String()
	}
	if f.Cache.Path == "" {
		f.Cache.Path = DefaultCachePath
	}

	for i := range f.Targets {
		t := &f.Targets[i]
		// Inherit global languages if not overridden
		if len(t.Languages) == 0 {
			t.Languages = f.Languages
		}
		if t.SourceLang == "" {
			t.SourceLang = f.SourceLang
		}
	}
}

// Validate checks the document after defaults have been applied.
func (f *File) Validate() error {
	if !knownProvider(f.Provider.Name) {
		return fmt.Errorf("unknown provider %q (valid: azure, google)", f.Provider.Name)
	}
	if _, err := translate.ParsePartialPolicy(f.Partial); err != nil {
		return err
	}
	if _, err := quality.ParseErrorPolicy(f.Quality.OnError); err != nil {
		return err
	}
	if f.Quality.FailBelow < 0 || f.Quality.FailBelow > 5 {
		return fmt.Errorf("quality.fail_below must be between 0 and 5, got %d", f.Quality.FailBelow)
	}
	if err := validateLanguages("source_lang", []string{f.SourceLang}); err != nil {
		return err
	}
	if err := validateLanguages("languages", f.Languages); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for i, t := range f.Targets {
		if t.Name == "" {
			return fmt.Errorf("target #%d has no name", i+1)
		}
		if seen[t.Name] {
			return fmt.Errorf("target %q is declared twice", t.Name)
		}
		seen[t.Name] = true
		if t.Source == "" {
			return fmt.Errorf("target %q has no source", t.Name)
		}
		if !HasPlaceholder(t.Target) {
			return fmt.Errorf("target %q: target path %q needs a %s or %s placeholder", t.Name, t.Target, PlaceholderLang, PlaceholderAndroid)
		}
		if _, err := t.format(); err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
		if err := validateLanguages(fmt.Sprintf("target %q languages", t.Name), t.Languages); err != nil {
			return err
		}
	}
	return nil
}

func knownProvider(name string) bool {
	for _, p := range Providers {
		if p == name {
			return true
		}
	}
	return false
}

func validateLanguages(field string, langs []string) error {
	for _, l := range langs {
		if !langmeta.Valid(l) {
			return fmt.Errorf("%s: %q is not a valid language code", field, l)
		}
	}
	return nil
}

// format resolves the target's explicit format or detects it from the
// source extension.
func (t Target) format() (resfile.Format, error) {
	if t.Format != "" {
		return resfile.ParseFormat(t.Format)
	}
	return resfile.Detect(t.Source)
}

// ApplyEnv overrides provider settings from the environment. lookup is
// os.LookupEnv outside tests.
func (f *File) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		f.Provider.APIKey = v
	}
	if v, ok := lookup(EnvRegion); ok && v != "" {
		f.Provider.Region = v
	}
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		f.Provider.Endpoint = v
	}
}

// PartialPolicy returns the parsed partial policy. Validate guarantees it
// parses.
func (f *File) PartialPolicy() translate.PartialPolicy {
	p, _ := translate.ParsePartialPolicy(f.Partial)
	return p
}

// QualityPolicy returns the parsed quality error policy.
func (f *File) QualityPolicy() quality.ErrorPolicy {
	p, _ := quality.ParseErrorPolicy(f.Quality.OnError)
	return p
}
