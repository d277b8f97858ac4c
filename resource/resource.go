// Package resource implements the in-memory model of a localization bundle:
// an ordered set of key/value entries with constant-time key lookup.
//
// The model knows nothing about markup or file formats. Loading and saving
// live in resxfile, android, yamlfile and propfile; resfile picks one of
// them by file extension.
package resource

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// Entry is a single key/value resource.
type Entry struct {
	// Key is the resource name. Non-empty, unique within a Set.
	Key string
	// Value is the text, possibly carrying inline markup.
	Value string
	// PreserveWhitespace mirrors xml:space="preserve" on formats that have it.
	PreserveWhitespace bool
	// Comment is the translator note attached to the entry, if any.
	Comment string
}

// Set is an ordered collection of entries addressable by key.
//
// The zero value is an empty, usable set.
type Set struct {
	entries []*Entry
	// byKey maps key to index in entries.
	byKey map[string]int
}

// New returns an empty set.
func New() *Set {
	return &Set{byKey: make(map[string]int)}
}

// FromEntries builds a set from entries in order. It fails with a
// *DuplicateKeyError when a key repeats.
func FromEntries(entries ...Entry) (*Set, error) {
	s := New()
	for _, e := range entries {
		if err := s.Append(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustFromEntries is FromEntries for literals in tests and examples.
func MustFromEntries(entries ...Entry) *Set {
	s, err := FromEntries(entries...)
	if err != nil {
		panic(err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrInvalidKey is returned when appending an entry with an empty key.
var ErrInvalidKey = errors.New("resource key must not be empty")

// DuplicateKeyError reports an attempt to add a key that already exists.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate resource key %q", e.Key)
}

// KeyNotFoundError reports an operation on a key that does not exist.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("resource key %q not found", e.Key)
}

// MalformedError reports a document that could not be parsed as the
// expected format.
type MalformedError struct {
	// Path is the file the document came from, empty for in-memory data.
	Path string
	// Format is the expected format name (resx, android, yaml, properties).
	Format string
	Err    error
}

func (e *MalformedError) Error() string {
	where := e.Path
	if where == "" {
		where = "input"
	}
	return fmt.Sprintf("%s is not a valid %s document: %v", where, e.Format, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Len returns the number of entries.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns copies of all entries in order.
func (s *Set) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

// Keys returns all keys in order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Key
	}
	return keys
}

// Has reports whether key exists.
func (s *Set) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byKey[key]
	return ok
}

// Get returns the entry for key.
func (s *Set) Get(key string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	idx, ok := s.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return *s.entries[idx], true
}

// Value returns the value for key, or "" when the key does not exist.
func (s *Set) Value(key string) string {
	e, _ := s.Get(key)
	return e.Value
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// Append adds e at the end of the set.
func (s *Set) Append(e Entry) error {
	if e.Key == "" {
		return ErrInvalidKey
	}
	if s.byKey == nil {
		s.byKey = make(map[string]int)
	}
	if _, exists := s.byKey[e.Key]; exists {
		return &DuplicateKeyError{Key: e.Key}
	}
	s.byKey[e.Key] = len(s.entries)
	entry := e
	s.entries = append(s.entries, &entry)
	return nil
}

// ReplaceValue sets the value of an existing key.
func (s *Set) ReplaceValue(key, value string) error {
	if s == nil {
		return &KeyNotFoundError{Key: key}
	}
	idx, ok := s.byKey[key]
	if !ok {
		return &KeyNotFoundError{Key: key}
	}
	s.entries[idx].Value = value
	return nil
}

// Clone returns an independent copy of s. Cloning nil yields an empty set.
func (s *Set) Clone() *Set {
	c := New()
	if s == nil {
		return c
	}
	c.entries = make([]*Entry, len(s.entries))
	for i, e := range s.entries {
		entry := *e
		c.entries[i] = &entry
		c.byKey[e.Key] = i
	}
	return c
}

// ---------------------------------------------------------------------------
// Diffing
// ---------------------------------------------------------------------------

// Missing returns the keys of source that target lacks, in source order.
// A nil target lacks every key.
func Missing(source, target *Set) []string {
	var keys []string
	for _, k := range source.Keys() {
		if !target.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Obsolete returns the keys of target that source no longer has, in
// target order.
func Obsolete(source, target *Set) []string {
	return Missing(target, source)
}

// Common returns the keys present in both sets, in source order.
func Common(source, target *Set) []string {
	var keys []string
	for _, k := range source.Keys() {
		if target.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Prune returns a copy of target without the keys source no longer has.
// Remaining entries keep their order.
func Prune(source, target *Set) *Set {
	out := New()
	for _, e := range target.Entries() {
		if source.Has(e.Key) {
			_ = out.Append(e)
		}
	}
	return out
}
