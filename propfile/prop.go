// Package propfile implements reading and writing of Java .properties files.
//
// Format: key=value or key: value pairs. Lines starting with '#' or '!' are
// comments and are preserved verbatim in the output, as are blank lines.
// A value ending in an odd number of backslashes continues on the next
// line. Keys and values may use \uXXXX and the usual backslash escapes;
// non-ASCII characters are written as \uXXXX.
//
// The File type maintains the original line order so that round-trip
// serialization reproduces the source structure with translated values.
package propfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/minios-linux/resxlate/resource"
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// lineKind classifies each logical line in the file.
type lineKind int

const (
	lineBlank   lineKind = iota // blank / whitespace-only line
	lineComment                 // comment line (starts with # or !)
	lineEntry                   // key=value pair
)

// line is a single logical line in the properties file.
type line struct {
	kind lineKind
	raw  string // original text (comment/blank)
	key  string // only for lineEntry
}

// File represents a parsed .properties file.
type File struct {
	lines []line
	set   *resource.Set
}

// New returns an empty .properties document.
func New() *File {
	return &File{set: resource.New()}
}

// Resources returns the key/value pairs.
func (f *File) Resources() *resource.Set { return f.set }

// SetResources replaces the key/value pairs.
func (f *File) SetResources(s *resource.Set) {
	if s == nil {
		s = resource.New()
	}
	f.set = s
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a .properties file from disk.
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

// Parse parses .properties content from a byte slice.
func Parse(data []byte) (*File, error) {
	f := New()

	text := string(data)
	// Normalise Windows line endings.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	rawLines := strings.Split(text, "\n")

	// Drop trailing empty element from a file that ends with \n.
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	for i := 0; i < len(rawLines); i++ {
		raw := rawLines[i]
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			f.lines = append(f.lines, line{kind: lineBlank, raw: raw})

		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!"):
			f.lines = append(f.lines, line{kind: lineComment, raw: raw})

		default:
			logical := strings.TrimLeft(raw, " \t\f")
			lineNo := i + 1
			for continues(logical) && i+1 < len(rawLines) {
				i++
				logical = logical[:len(logical)-1] + strings.TrimLeft(rawLines[i], " \t\f")
			}
			if continues(logical) {
				logical = logical[:len(logical)-1]
			}

			rawKey, rawValue := splitKeyValue(logical)
			key, err := unescape(rawKey)
			if err != nil {
				return nil, &resource.MalformedError{Format: "properties", Err: fmt.Errorf("line %d: %w", lineNo, err)}
			}
			value, err := unescape(rawValue)
			if err != nil {
				return nil, &resource.MalformedError{Format: "properties", Err: fmt.Errorf("line %d: %w", lineNo, err)}
			}
			if key == "" {
				// Malformed line; keep it as a comment.
				f.lines = append(f.lines, line{kind: lineComment, raw: raw})
				continue
			}
			if err := f.set.Append(resource.Entry{Key: key, Value: value}); err != nil {
				return nil, err
			}
			f.lines = append(f.lines, line{kind: lineEntry, key: key})
		}
	}

	return f, nil
}

// continues reports whether s ends in an odd number of backslashes.
func continues(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// splitKeyValue splits "key = value", "key:value" or "key value" at the
// first unescaped separator. Whitespace around the separator is dropped.
func splitKeyValue(s string) (key, value string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '=', ':':
			return strings.TrimRight(s[:i], " \t\f"), strings.TrimLeft(s[i+1:], " \t\f")
		case ' ', '\t', '\f':
			rest := strings.TrimLeft(s[i:], " \t\f")
			if rest != "" && (rest[0] == '=' || rest[0] == ':') {
				rest = strings.TrimLeft(rest[1:], " \t\f")
			}
			return s[:i], rest
		}
	}
	// No separator: the whole line is a key with empty value.
	return s, ""
}

// unescape resolves backslash escapes, including \uXXXX.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+5 > len(s) {
				return "", fmt.Errorf("truncated \\u escape in %q", s)
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape in %q", s)
			}
			i += 4
			if utf16.IsSurrogate(rune(r)) && i+6 < len(s) && s[i+1] == '\\' && s[i+2] == 'u' {
				if lo, err := strconv.ParseUint(s[i+3:i+7], 16, 32); err == nil {
					if pair := utf16.DecodeRune(rune(r), rune(lo)); pair != '\uFFFD' {
						b.WriteRune(pair)
						i += 6
						continue
					}
				}
			}
			b.WriteRune(rune(r))
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the file back to .properties format. Keys that are no
// longer in the set are dropped; new keys are appended at the end.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	written := make(map[string]bool)
	for _, ln := range f.lines {
		switch ln.kind {
		case lineBlank:
			buf.WriteByte('\n')
		case lineComment:
			buf.WriteString(ln.raw)
			buf.WriteByte('\n')
		case lineEntry:
			if e, ok := f.set.Get(ln.key); ok {
				writeEntry(&buf, e)
				written[ln.key] = true
			}
		}
	}
	for _, e := range f.set.Entries() {
		if !written[e.Key] {
			writeEntry(&buf, e)
		}
	}
	return buf.Bytes(), nil
}

func writeEntry(buf *bytes.Buffer, e resource.Entry) {
	if e.Comment != "" {
		buf.WriteString("# ")
		buf.WriteString(e.Comment)
		buf.WriteByte('\n')
	}
	buf.WriteString(escape(e.Key, true))
	buf.WriteByte('=')
	buf.WriteString(escape(e.Value, false))
	buf.WriteByte('\n')
}

// escape encodes s for a key or value position.
func escape(s string, isKey bool) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\f':
			b.WriteString(`\f`)
		case r == '=' || r == ':' || r == '#' || r == '!':
			if isKey {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case r == ' ':
			// Leading spaces of a value and every space of a key would be lost.
			if isKey || i == 0 {
				b.WriteByte('\\')
			}
			b.WriteByte(' ')
		case r < 0x20 || r > 0x7e:
			if r > 0xffff {
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(&b, `\u%04X\u%04X`, hi, lo)
				continue
			}
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WriteFile serialises and writes to path, creating parent directories
// with 0755 permissions.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
