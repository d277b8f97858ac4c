// Package resfile loads and saves resource documents, choosing the file
// format from the file extension.
package resfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/resxlate/android"
	"github.com/minios-linux/resxlate/propfile"
	"github.com/minios-linux/resxlate/resource"
	"github.com/minios-linux/resxlate/resxfile"
	"github.com/minios-linux/resxlate/yamlfile"
)

// Format names a supported file format.
type Format string

const (
	FormatResx       Format = "resx"
	FormatAndroid    Format = "android"
	FormatYAML       Format = "yaml"
	FormatProperties Format = "properties"
)

// Formats lists the supported formats.
var Formats = []Format{FormatResx, FormatAndroid, FormatYAML, FormatProperties}

// Document is a parsed resource file whose string resources can be read,
// replaced and written back.
type Document interface {
	Resources() *resource.Set
	SetResources(*resource.Set)
	Marshal() ([]byte, error)
}

// ErrUnknownFormat is returned for paths and names no format handles.
var ErrUnknownFormat = errors.New("unknown resource file format")

// ParseFormat validates a format name. The empty name is accepted and
// means "detect from extension".
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return "", nil
	}
	for _, f := range Formats {
		if string(f) == strings.ToLower(name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Detect returns the format for path based on its extension.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".resx":
		return FormatResx, nil
	case ".xml":
		return FormatAndroid, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".properties":
		return FormatProperties, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

func resolve(path string, format Format) (Format, error) {
	if format != "" {
		return format, nil
	}
	return Detect(path)
}

// New returns an empty document of the given format.
func New(format Format) (Document, error) {
	switch format {
	case FormatResx:
		return resxfile.New(), nil
	case FormatAndroid:
		return android.New(), nil
	case FormatYAML:
		return yamlfile.New(), nil
	case FormatProperties:
		return propfile.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Parse parses data in the given format.
func Parse(data []byte, format Format) (Document, error) {
	switch format {
	case FormatResx:
		return resxfile.Parse(data)
	case FormatAndroid:
		return android.Parse(data)
	case FormatYAML:
		return yamlfile.Parse(data)
	case FormatProperties:
		return propfile.Parse(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Load reads and parses path. An empty format is detected from the
// extension.
func Load(path string, format Format) (Document, error) {
	format, err := resolve(path, format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		var me *resource.MalformedError
		if errors.As(err, &me) {
			me.Path = path
		}
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return doc, nil
}

// LoadOrNew is Load, except that a missing file yields an empty document.
// Targets that were never translated start out this way.
func LoadOrNew(path string, format Format) (doc Document, existed bool, err error) {
	doc, err = Load(path, format)
	if err == nil {
		return doc, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	format, err = resolve(path, format)
	if err != nil {
		return nil, false, err
	}
	doc, err = New(format)
	return doc, false, err
}

// Localize adapts a document copied from the source file to lang. Only
// Rails-style YAML files carry the language in their content.
func Localize(doc Document, lang string) {
	if l, ok := doc.(interface{ SetLocaleRoot(string) }); ok {
		l.SetLocaleRoot(lang)
	}
}

// Save writes doc to path, creating parent directories.
func Save(doc Document, path string) error {
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
