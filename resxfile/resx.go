// Package resxfile implements reading and writing of .NET .resx resource
// files.
//
// Only string resources take part in translation: every <data> element with
// a <value> child and no mimetype attribute. Everything else under <root>
// (resheaders, the embedded schema, assembly aliases, binary resources,
// comments and <data> without <value>) is kept verbatim and written back in
// its original position.
package resxfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/minios-linux/resxlate/resource"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// node is one child of <root> in document order: either a verbatim chunk
// or a reference to a string resource by key.
type node struct {
	raw string
	key string
}

// File is a parsed .resx document.
type File struct {
	nodes []node
	set   *resource.Set
	// hasHeaders is false for documents without <resheader>; Marshal adds
	// the standard ones.
	hasHeaders bool
}

// New returns an empty document. It is written with the standard resx
// headers.
func New() *File {
	return &File{set: resource.New()}
}

// Resources returns the string resources of the document.
func (f *File) Resources() *resource.Set { return f.set }

// SetResources replaces the string resources. Keys that disappear are
// dropped from the output; new keys are written after the existing ones.
func (f *File) SetResources(s *resource.Set) {
	if s == nil {
		s = resource.New()
	}
	f.set = s
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a .resx file.
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

var reEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*\bencoding\s*=\s*["']([^"']+)["']`)

// toUTF8 converts data declared in a non UTF-8 encoding.
func toUTF8(data []byte) ([]byte, error) {
	m := reEncoding.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	label := strings.ToLower(string(m[1]))
	if label == "utf-8" || label == "utf8" {
		return data, nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func malformed(err error) error {
	return &resource.MalformedError{Format: "resx", Err: err}
}

// Parse parses .resx data.
//
// Documents that are not XML, or whose root element is not <root>, fail
// with *resource.MalformedError. Repeated resource names fail with
// *resource.DuplicateKeyError.
func Parse(data []byte) (*File, error) {
	data, err := toUTF8(data)
	if err != nil {
		return nil, malformed(err)
	}

	f := New()
	dec := xml.NewDecoder(bytes.NewReader(data))
	// Input is UTF-8 at this point whatever the declaration says.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	seenRoot, inRoot := false, false
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
			if !inRoot {
				if seenRoot || t.Name.Local != "root" {
					return nil, malformed(fmt.Errorf("root element is <%s>, want <root>", t.Name.Local))
				}
				seenRoot, inRoot = true, true
				continue
			}
			if t.Name.Local == "data" {
				if err := f.parseData(dec, t, data, start); err != nil {
					return nil, err
				}
				continue
			}
			if t.Name.Local == "resheader" {
				f.hasHeaders = true
			}
			if err := dec.Skip(); err != nil {
				return nil, malformed(err)
			}
			f.nodes = append(f.nodes, node{raw: string(data[start:dec.InputOffset()])})

		case xml.Comment:
			if inRoot {
				f.nodes = append(f.nodes, node{raw: string(data[start:dec.InputOffset()])})
			}

		case xml.EndElement:
			if inRoot && t.Name.Local == "root" {
				inRoot = false
			}
		}
	}

	if !seenRoot {
		return nil, malformed(errors.New("missing <root> element"))
	}
	return f, nil
}

// parseData reads a <data> element whose start tag was just consumed.
func (f *File) parseData(dec *xml.Decoder, elem xml.StartElement, data []byte, start int64) error {
	var name string
	preserve, binary := false, false
	for _, a := range elem.Attr {
		switch {
		case a.Name.Local == "name" && a.Name.Space == "":
			name = a.Value
		case a.Name.Local == "space" && (a.Name.Space == xmlNamespace || a.Name.Space == "xml"):
			preserve = a.Value == "preserve"
		case a.Name.Local == "mimetype":
			binary = true
		}
	}

	var value, comment *string
	for {
		tok, err := dec.Token()
		if err != nil {
			return malformed(fmt.Errorf("reading <data name=%q>: %w", name, err))
		}
		if end, ok := tok.(xml.EndElement); ok && end.Name.Local == "data" {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "value", "comment":
			text, err := readText(dec)
			if err != nil {
				return malformed(fmt.Errorf("reading <data name=%q>: %w", name, err))
			}
			if se.Name.Local == "value" {
				value = &text
			} else {
				comment = &text
			}
		default:
			if err := dec.Skip(); err != nil {
				return malformed(err)
			}
		}
	}

	if name == "" || value == nil || binary {
		f.nodes = append(f.nodes, node{raw: string(data[start:dec.InputOffset()])})
		return nil
	}

	e := resource.Entry{Key: name, Value: *value, PreserveWhitespace: preserve}
	if comment != nil {
		e.Comment = *comment
	}
	if err := f.set.Append(e); err != nil {
		return err
	}
	f.nodes = append(f.nodes, node{key: name})
	return nil
}

// readText returns the character data of the element whose start tag was
// just consumed, up to and including its end tag.
func readText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return b.String(), nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

const standardHeaders = `  <resheader name="resmimetype">
    <value>text/microsoft-resx</value>
  </resheader>
  <resheader name="version">
    <value>2.0</value>
  </resheader>
  <resheader name="reader">
    <value>System.Resources.ResXResourceReader, System.Windows.Forms, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089</value>
  </resheader>
  <resheader name="writer">
    <value>System.Resources.ResXResourceWriter, System.Windows.Forms, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089</value>
  </resheader>
`

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
)

// Marshal produces the .resx XML. Resources keep their original position;
// resources added since parsing follow in set order.
func (f *File) Marshal() ([]byte, error) {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<root>\n")
	if !f.hasHeaders {
		b.WriteString(standardHeaders)
	}

	written := make(map[string]bool)
	for _, n := range f.nodes {
		if n.key == "" {
			b.WriteString("  ")
			b.WriteString(n.raw)
			b.WriteString("\n")
			continue
		}
		if e, ok := f.set.Get(n.key); ok {
			writeData(&b, e)
			written[n.key] = true
		}
	}
	for _, e := range f.set.Entries() {
		if !written[e.Key] {
			writeData(&b, e)
		}
	}

	b.WriteString("</root>\n")
	return []byte(b.String()), nil
}

func writeData(b *strings.Builder, e resource.Entry) {
	fmt.Fprintf(b, `  <data name="%s"`, attrEscaper.Replace(e.Key))
	if e.PreserveWhitespace {
		b.WriteString(` xml:space="preserve"`)
	}
	b.WriteString(">\n")
	fmt.Fprintf(b, "    <value>%s</value>\n", textEscaper.Replace(e.Value))
	if e.Comment != "" {
		fmt.Fprintf(b, "    <comment>%s</comment>\n", textEscaper.Replace(e.Comment))
	}
	b.WriteString("  </data>\n")
}

// WriteFile writes the document to path, creating parent directories.
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
