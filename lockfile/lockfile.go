// Package lockfile implements .resxlate.lock, a lock file that remembers
// the MD5 checksum of every source value at the time it was translated.
//
// Reconciling only ever adds missing keys, so a source value that is edited
// after translation leaves an outdated translation behind. The lock file
// lets status report those keys as stale. It is stored alongside
// .resxlate.yaml.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/resxlate/resource"
)

// FileName is the default lock file name.
const FileName = ".resxlate.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the .resxlate.lock file structure.
type LockFile struct {
	Version int `yaml:"version"`
	// Checksums maps target file -> resource key -> md5 of the source value.
	Checksums map[string]map[string]string `yaml:"checksums"`

	mu   sync.Mutex
	path string
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file from dir. A missing file yields an empty lock.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, FileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported lock file version %d", path, lf.Version)
	}
	lf.Version = Version
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksums
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// TargetKey normalizes a target file path relative to the project root.
func TargetKey(relPath string) string {
	return filepath.ToSlash(relPath)
}

// Record stores the checksum of source's value for each of keys.
// Keys source does not have are ignored.
func (lf *LockFile) Record(target string, source *resource.Set, keys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	sums := lf.Checksums[target]
	if sums == nil {
		sums = make(map[string]string)
		lf.Checksums[target] = sums
	}
	for _, k := range keys {
		if e, ok := source.Get(k); ok {
			sums[k] = Hash(e.Value)
		}
	}
}

// RecordAll stores checksums for every key of source.
func (lf *LockFile) RecordAll(target string, source *resource.Set) {
	lf.Record(target, source, source.Keys())
}

// Stale returns the keys of translated whose source value changed since
// they were recorded, in translated order. Keys never recorded are not
// stale, nor are keys source no longer has (those are obsolete).
func (lf *LockFile) Stale(target string, source, translated *resource.Set) []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	sums := lf.Checksums[target]
	if len(sums) == 0 {
		return nil
	}
	var stale []string
	for _, k := range translated.Keys() {
		old, ok := sums[k]
		if !ok {
			continue
		}
		e, ok := source.Get(k)
		if !ok {
			continue
		}
		if old != Hash(e.Value) {
			stale = append(stale, k)
		}
	}
	return stale
}

// Clean drops checksums for keys no longer in currentKeys.
func (lf *LockFile) Clean(target string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[target]
	if existing == nil {
		return
	}
	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
	if len(existing) == 0 {
		delete(lf.Checksums, target)
	}
}

// RemoveTarget removes all checksums for a target.
func (lf *LockFile) RemoveTarget(target string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, target)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of targets and total keys in the lock file.
func (lf *LockFile) Stats() (targets, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Targets returns the sorted target keys.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	targets, keys := lf.Stats()
	if targets == 0 {
		return "empty"
	}

	var parts []string
	for _, t := range lf.Targets() {
		lf.mu.Lock()
		n := len(lf.Checksums[t])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d keys", t, n))
	}
	return fmt.Sprintf("%d targets, %d keys (%s)", targets, keys, strings.Join(parts, ", "))
}
