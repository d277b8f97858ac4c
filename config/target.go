package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/resxlate/android"
	"github.com/minios-linux/resxlate/resfile"
)

// Target path placeholders.
const (
	PlaceholderLang    = "{lang}"
	PlaceholderAndroid = "{android}"
)

// HasPlaceholder reports whether a target path template varies by language.
func HasPlaceholder(template string) bool {
	return strings.Contains(template, PlaceholderLang) || strings.Contains(template, PlaceholderAndroid)
}

// ExpandPath fills in the language placeholders of template.
func ExpandPath(template, lang string) string {
	r := strings.NewReplacer(
		PlaceholderLang, lang,
		PlaceholderAndroid, android.LocaleQualifier(lang),
	)
	return r.Replace(template)
}

// ---------------------------------------------------------------------------
// Resolving targets
// ---------------------------------------------------------------------------

// ResolvedTarget holds a fully resolved target with absolute paths.
type ResolvedTarget struct {
	Target     Target
	SourcePath string
	Format     resfile.Format
	Languages  []string
	SourceLang string

	absRoot string
}

// Resolve converts the file's targets into ResolvedTargets with absolute
// paths. projectRoot is the directory holding the config file.
func (f *File) Resolve(projectRoot string) ([]ResolvedTarget, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedTarget, 0, len(f.Targets))
	for _, t := range f.Targets {
		format, err := t.format()
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ResolvedTarget{
			Target:     t,
			SourcePath: abs(absRoot, t.Source),
			Format:     format,
			Languages:  t.Languages,
			SourceLang: t.SourceLang,
			absRoot:    absRoot,
		})
	}
	return resolved, nil
}

// TargetPath returns the absolute translated file path for lang.
func (rt *ResolvedTarget) TargetPath(lang string) string {
	return abs(rt.absRoot, ExpandPath(rt.Target.Target, lang))
}

// RelPath returns p relative to the project root, for display.
func (rt *ResolvedTarget) RelPath(p string) string {
	if rel, err := filepath.Rel(rt.absRoot, p); err == nil {
		return rel
	}
	return p
}

func abs(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// FindTarget returns the target named name.
func (f *File) FindTarget(name string) (Target, bool) {
	for _, t := range f.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// AllLanguages returns the deduplicated, sorted union of all target
// languages.
func (f *File) AllLanguages() []string {
	seen := make(map[string]bool)
	var all []string
	add := func(langs []string) {
		for _, lang := range langs {
			if !seen[lang] {
				seen[lang] = true
				all = append(all, lang)
			}
		}
	}
	add(f.Languages)
	for _, t := range f.Targets {
		add(t.Languages)
	}
	sort.Strings(all)
	return all
}

// CachePath returns the absolute cache database path, or MemoryCachePath.
func (f *File) CachePath(projectRoot string) string {
	if f.Cache.Path == MemoryCachePath {
		return MemoryCachePath
	}
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		root = projectRoot
	}
	return abs(root, f.Cache.Path)
}
