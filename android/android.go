// Package android implements reading and writing of Android strings.xml
// resource files.
//
// Translatable <string> resources make up the resource set. Everything
// else (<string-array>, <plurals>, strings with translatable="false",
// comments) is kept verbatim and written back in place.
package android

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/resxlate/resource"
)

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// node is one child of <resources>: a verbatim chunk or a string key.
type node struct {
	raw string
	key string
}

// File represents a parsed Android strings.xml file.
type File struct {
	nodes []node
	set   *resource.Set
	// cdata records string resources whose value was wrapped in
	// <![CDATA[...]]>; Marshal wraps them again.
	cdata map[string]bool
}

// New returns an empty strings.xml document.
func New() *File {
	return &File{set: resource.New(), cdata: make(map[string]bool)}
}

// Resources returns the translatable string resources.
func (f *File) Resources() *resource.Set { return f.set }

// SetResources replaces the string resources.
func (f *File) SetResources(s *resource.Set) {
	if s == nil {
		s = resource.New()
	}
	f.set = s
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses an Android strings.xml file.
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

func malformed(err error) error {
	return &resource.MalformedError{Format: "android", Err: err}
}

// Parse parses Android strings.xml data.
func Parse(data []byte) (*File, error) {
	f := New()
	dec := xml.NewDecoder(bytes.NewReader(data))

	seenRoot, inResources := false, false
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inResources {
				if seenRoot || t.Name.Local != "resources" {
					return nil, malformed(fmt.Errorf("root element is <%s>, want <resources>", t.Name.Local))
				}
				seenRoot, inResources = true, true
				continue
			}

			if t.Name.Local == "string" {
				name, translatable := parseAttrs(t)
				if name != "" && translatable {
					if err := f.parseString(dec, name, data[start:]); err != nil {
						return nil, err
					}
					continue
				}
			}
			// Unknown element, array, plurals or non-translatable string.
			if err := dec.Skip(); err != nil {
				return nil, malformed(err)
			}
			f.nodes = append(f.nodes, node{raw: string(data[start:dec.InputOffset()])})

		case xml.Comment:
			if inResources {
				f.nodes = append(f.nodes, node{raw: string(data[start:dec.InputOffset()])})
			}

		case xml.EndElement:
			if t.Name.Local == "resources" {
				inResources = false
			}
		}
	}

	if !seenRoot {
		return nil, malformed(errors.New("missing <resources> element"))
	}
	return f, nil
}

// parseAttrs extracts name and translatable from a start element.
func parseAttrs(elem xml.StartElement) (name string, translatable bool) {
	translatable = true // default
	for _, attr := range elem.Attr {
		switch attr.Name.Local {
		case "name":
			name = attr.Value
		case "translatable":
			if strings.EqualFold(attr.Value, "false") {
				translatable = false
			}
		}
	}
	return
}

// parseString reads a <string> element already opened. rest is the input
// starting at its start tag.
func (f *File) parseString(dec *xml.Decoder, name string, rest []byte) error {
	var inner strings.Builder
	if err := readElementContent(dec, &inner); err != nil {
		return malformed(fmt.Errorf("reading <string name=%q>: %w", name, err))
	}
	if err := f.set.Append(resource.Entry{Key: name, Value: inner.String()}); err != nil {
		return err
	}
	if startsWithCDATA(rest) {
		f.cdata[name] = true
	}
	f.nodes = append(f.nodes, node{key: name})
	return nil
}

// startsWithCDATA reports whether the element at the start of b opens its
// content with a CDATA section. encoding/xml unwraps CDATA into CharData,
// so the raw input is inspected instead.
func startsWithCDATA(b []byte) bool {
	gt := bytes.IndexByte(b, '>')
	if gt < 0 {
		return false
	}
	return bytes.HasPrefix(bytes.TrimLeft(b[gt+1:], " \t\r\n"), []byte("<![CDATA["))
}

// readElementContent reads the full inner content of an XML element until
// its matching close tag, reconstructing inline child elements (e.g.
// <xliff:g>, <b>) as raw markup. Apostrophes are unescaped (\' → ').
func readElementContent(dec *xml.Decoder, b *strings.Builder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.WriteString(unescapeAndroidApostrophe(string(t)))
		case xml.StartElement:
			depth++
			b.WriteString("<")
			b.WriteString(qualifiedName(t.Name))
			for _, attr := range t.Attr {
				fmt.Fprintf(b, ` %s="%s"`, qualifiedName(attr.Name), attr.Value)
			}
			b.WriteString(">")
		case xml.EndElement:
			depth--
			if depth > 0 {
				b.WriteString("</")
				b.WriteString(qualifiedName(t.Name))
				b.WriteString(">")
			}
		}
	}
	return nil
}

// qualifiedName maps the namespaces Android files commonly use back to
// their prefixes.
func qualifiedName(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case "urn:oasis:names:tc:xliff:document:1.2":
		return "xliff:" + n.Local
	case "http://schemas.android.com/tools":
		return "tools:" + n.Local
	}
	return n.Space + ":" + n.Local
}

// unescapeAndroidApostrophe converts Android-escaped apostrophes (\') to
// plain apostrophes (').
func unescapeAndroidApostrophe(s string) string {
	return strings.ReplaceAll(s, `\'`, `'`)
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal produces the XML output in Android strings.xml format.
func (f *File) Marshal() ([]byte, error) {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<resources>\n")

	written := make(map[string]bool)
	for _, n := range f.nodes {
		if n.key == "" {
			fmt.Fprintf(&b, "    %s\n", n.raw)
			continue
		}
		if e, ok := f.set.Get(n.key); ok {
			f.writeString(&b, e)
			written[n.key] = true
		}
	}
	for _, e := range f.set.Entries() {
		if !written[e.Key] {
			f.writeString(&b, e)
		}
	}

	b.WriteString("</resources>\n")
	return []byte(b.String()), nil
}

func (f *File) writeString(b *strings.Builder, e resource.Entry) {
	content := marshalStringValue(e.Value, f.cdata[e.Key])
	fmt.Fprintf(b, "    <string name=\"%s\">%s</string>\n", e.Key, content)
}

// WriteFile writes the strings.xml file to disk.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// marshalStringValue encodes a string value for XML output.
// If useCDATA is true the value is wrapped in <![CDATA[...]]> and only
// apostrophes are escaped (Android AAPT requirement); otherwise standard
// XML escaping plus Android apostrophe escaping is applied.
func marshalStringValue(s string, useCDATA bool) string {
	if useCDATA {
		return "<![CDATA[" + escapeAndroidApostrophe(s) + "]]>"
	}
	return xmlEscape(s)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// xmlEscape escapes a plain string value for use inside an XML element.
// Strings that contain both < and > are assumed to carry inline tags
// (e.g. <xliff:g>) and are only apostrophe-escaped.
func xmlEscape(s string) string {
	if strings.Contains(s, "<") && strings.Contains(s, ">") {
		return escapeAndroidApostrophe(s)
	}
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return escapeAndroidApostrophe(s)
}

// escapeAndroidApostrophe escapes apostrophes for Android AAPT without
// double-escaping (strips any existing \' first, then re-escapes).
func escapeAndroidApostrophe(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`) // normalise first
	return strings.ReplaceAll(s, `'`, `\'`)
}

// LocaleQualifier converts a BCP-47 code to the Android resource qualifier
// form used in values-XX directory names.
// e.g., "pt-BR" -> "pt-rBR", "zh-CN" -> "zh-rCN", "ru" -> "ru"
func LocaleQualifier(lang string) string {
	parts := strings.SplitN(lang, "-", 2)
	if len(parts) == 2 && len(parts[1]) > 0 {
		return parts[0] + "-r" + parts[1]
	}
	return lang
}

// StandardLocale is the inverse of LocaleQualifier.
// e.g., "pt-rBR" -> "pt-BR", "ru" -> "ru"
func StandardLocale(qualifier string) string {
	if idx := strings.Index(qualifier, "-r"); idx >= 0 {
		return qualifier[:idx] + "-" + qualifier[idx+2:]
	}
	return qualifier
}
