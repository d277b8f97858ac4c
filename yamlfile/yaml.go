// Package yamlfile implements reading and writing of YAML resource files.
//
// The expected file format is a nested YAML map with string leaf values:
//
//	greeting: Hello
//	nav:
//	  home: Home
//	  about: About
//
// Nested keys are flattened to dotted resource keys ("nav.home"). Rails
// i18n style (locale as the single top-level key) is also supported:
//
//	en:
//	  greeting: Hello
//
// Non-string leaves (numbers, booleans, null, arrays) are passed through
// unchanged. Structure, comments and scalar styles survive a round trip.
package yamlfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/resxlate/resource"
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// File represents a parsed YAML resource file.
type File struct {
	// doc is the DocumentNode, used for round-trip writing.
	doc *yaml.Node
	set *resource.Set
	// rootLocaleKey is set when the file uses Rails i18n style (e.g. "en:").
	// The actual resources live one level deeper.
	rootLocaleKey string
}

// New returns an empty YAML document.
func New() *File {
	return &File{
		doc: &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{
			{Kind: yaml.MappingNode, Tag: "!!map"},
		}},
		set: resource.New(),
	}
}

// Resources returns the string leaves as a flat resource set.
func (f *File) Resources() *resource.Set { return f.set }

// SetResources replaces the string leaves.
func (f *File) SetResources(s *resource.Set) {
	if s == nil {
		s = resource.New()
	}
	f.set = s
}

// LocaleRoot returns the Rails-style top-level locale key, or "".
func (f *File) LocaleRoot() string { return f.rootLocaleKey }

// SetLocaleRoot renames the Rails-style top-level locale key. It has no
// effect on documents without one.
func (f *File) SetLocaleRoot(lang string) {
	if f.rootLocaleKey == "" {
		return
	}
	f.rootLocaleKey = lang
	f.root().Content[0].Value = lang
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a YAML resource file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		var me *resource.MalformedError
		if errors.As(err, &me) {
			me.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &resource.MalformedError{Format: "yaml", Err: err}
	}

	// Empty file: nothing to collect.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return New(), nil
	}

	f := &File{doc: &doc, set: resource.New()}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &resource.MalformedError{Format: "yaml", Err: fmt.Errorf("root must be a mapping, got kind %d", root.Kind)}
	}

	// Rails i18n style: single top-level key whose value is a mapping.
	if len(root.Content) == 2 {
		keyNode, valNode := root.Content[0], root.Content[1]
		if keyNode.Kind == yaml.ScalarNode && valNode.Kind == yaml.MappingNode {
			f.rootLocaleKey = keyNode.Value
		}
	}

	if err := collectEntries(f.mapping(), "", f.set); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) root() *yaml.Node { return f.doc.Content[0] }

// mapping returns the node holding the resources.
func (f *File) mapping() *yaml.Node {
	if f.rootLocaleKey != "" {
		return f.root().Content[1]
	}
	return f.root()
}

func isStringScalar(n *yaml.Node) bool {
	if n.Kind != yaml.ScalarNode {
		return false
	}
	switch n.Tag {
	case "!!bool", "!!int", "!!float", "!!null":
		return false
	}
	return true
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// collectEntries recursively walks a mapping node and appends string leaves.
func collectEntries(node *yaml.Node, prefix string, set *resource.Set) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		path := joinPath(prefix, node.Content[i].Value)
		valNode := node.Content[i+1]

		switch {
		case valNode.Kind == yaml.MappingNode:
			if err := collectEntries(valNode, path, set); err != nil {
				return err
			}
		case isStringScalar(valNode):
			if err := set.Append(resource.Entry{Key: path, Value: valNode.Value, Comment: strings.TrimSpace(strings.TrimPrefix(valNode.LineComment, "#"))}); err != nil {
				return err
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal serialises the file back to YAML, preserving the original
// structure and scalar styles. String leaves that are no longer in the set
// are removed; keys added to the set are created as nested maps.
func (f *File) Marshal() ([]byte, error) {
	m := f.mapping()
	seen := make(map[string]bool)
	applyEntries(m, "", f.set, seen)
	for _, e := range f.set.Entries() {
		if !seen[e.Key] {
			insertPath(m, strings.Split(e.Key, "."), e.Value)
		}
	}
	return yaml.Marshal(f.doc)
}

// applyEntries updates string leaves from set and drops the ones set no
// longer has. Emptied maps are dropped as well.
func applyEntries(node *yaml.Node, prefix string, set *resource.Set, seen map[string]bool) {
	kept := node.Content[:0]
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		path := joinPath(prefix, keyNode.Value)

		switch {
		case valNode.Kind == yaml.MappingNode:
			hadChildren := len(valNode.Content) > 0
			applyEntries(valNode, path, set, seen)
			if hadChildren && len(valNode.Content) == 0 {
				continue
			}
		case isStringScalar(valNode):
			e, ok := set.Get(path)
			if !ok {
				continue
			}
			seen[path] = true
			if valNode.Value != e.Value {
				valNode.Value = e.Value
				if e.Value == "" {
					valNode.Style = yaml.DoubleQuotedStyle
				}
			}
		}
		kept = append(kept, keyNode, valNode)
	}
	node.Content = kept
}

// insertPath adds a string leaf, creating intermediate maps as needed.
func insertPath(node *yaml.Node, parts []string, value string) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != parts[0] {
			continue
		}
		child := node.Content[i+1]
		if len(parts) > 1 && child.Kind == yaml.MappingNode {
			insertPath(child, parts[1:], value)
			return
		}
		// The key exists as a leaf; keep the rest of the path as one literal key.
		if len(parts) > 1 {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strings.Join(parts, ".")},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
			)
			return
		}
	}

	if len(parts) == 1 {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: parts[0]},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
		)
		return
	}
	child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: parts[0]},
		child,
	)
	insertPath(child, parts[1:], value)
}

// WriteFile serialises the file and writes it to the given path.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
