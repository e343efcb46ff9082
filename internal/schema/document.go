package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format int

const (
	// FormatTOML is a TOML document.
	FormatTOML Format = iota

	// FormatYAML is a YAML document.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Document is a decoded definition file.
type Document struct {
	// Source is the path or label the document was read from.
	Source string `toml:"-" yaml:"-"`

	// Classes are the class definitions in file order.
	Classes []ClassDef `toml:"class" yaml:"class"`
}

// ClassDef defines one class.
type ClassDef struct {
	Name    string      `toml:"name" yaml:"name"`
	Doc     string      `toml:"doc" yaml:"doc"`
	Members []MemberDef `toml:"member" yaml:"member"`
}

// MemberDef defines one member. Which fields apply depends on Kind.
type MemberDef struct {
	Name string `toml:"name" yaml:"name"`
	Kind string `toml:"kind" yaml:"kind"`
	Doc  string `toml:"doc" yaml:"doc"`

	// Default is the static default value.
	Default any `toml:"default" yaml:"default"`

	// Items are the allowed values of an enum.
	Items []any `toml:"items" yaml:"items"`

	// Low and High bound range and float_range members.
	Low  any `toml:"low" yaml:"low"`
	High any `toml:"high" yaml:"high"`

	// Item types list elements, ref targets and event payloads.
	Item *MemberDef `toml:"item" yaml:"item"`

	// Key and Value type dict entries.
	Key   *MemberDef `toml:"key" yaml:"key"`
	Value *MemberDef `toml:"value" yaml:"value"`

	ReadOnly bool `toml:"readonly" yaml:"readonly"`
	Coerce   bool `toml:"coerce" yaml:"coerce"`

	// DependsOn lists members whose writes invalidate this member.
	DependsOn []string `toml:"depends_on" yaml:"depends_on"`

	// Emits lists signals emitted after each write to this member.
	Emits []string `toml:"emits" yaml:"emits"`
}

// Parse decodes a document. Unknown fields are errors.
func Parse(data []byte, format Format, source string) (*Document, error) {
	var doc Document
	var err error

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err = dec.Decode(&doc); err != nil {
			return nil, tomlError(source, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, yamlError(source, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	doc.Source = source
	for i := range doc.Classes {
		for j := range doc.Classes[i].Members {
			doc.Classes[i].Members[j].normalize()
		}
	}
	return &doc, nil
}

// ParseFile reads and decodes the document at path.
func ParseFile(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition file %s: %w", path, err)
	}
	return Parse(data, format, path)
}

func tomlError(source string, err error) error {
	perr := &ParseError{Path: source, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	var serr *toml.StrictMissingError
	switch {
	case errors.As(err, &serr) && len(serr.Errors) > 0:
		first := serr.Errors[0]
		perr.Line, perr.Column = first.Position()
		perr.Message = "unknown field " + strings.Join(first.Key(), ".")
	case errors.As(err, &derr):
		perr.Line, perr.Column = derr.Position()
	}
	return perr
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func yamlError(source string, err error) error {
	perr := &ParseError{Path: source, Message: err.Error(), Err: err}

	msg := err.Error()
	var terr *yaml.TypeError
	if errors.As(err, &terr) && len(terr.Errors) > 0 {
		msg = terr.Errors[0]
		perr.Message = msg
	}
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		perr.Line, _ = strconv.Atoi(m[1])
	}
	return perr
}

// normalize converts decoder-specific scalar types to the types members
// validate against.
func (m *MemberDef) normalize() {
	m.Default = normalizeValue(m.Default)
	m.Low = normalizeValue(m.Low)
	m.High = normalizeValue(m.High)
	for i, item := range m.Items {
		m.Items[i] = normalizeValue(item)
	}
	for _, sub := range []*MemberDef{m.Item, m.Key, m.Value} {
		if sub != nil {
			sub.normalize()
		}
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
