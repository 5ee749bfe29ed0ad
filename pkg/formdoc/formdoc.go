// Package formdoc reads stepped form schemas from JSON, YAML or TOML
// documents and turns them into runnable stepform schemas.
package formdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dlovans/stepform/pkg/stepform"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for encodings or file extensions formdoc cannot read.
var ErrUnknownFormat = errors.New("unknown document format")

// Document is the declarative form of a stepform schema.
type Document struct {
	Name          string            `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Fields        []FieldDoc        `json:"fields" yaml:"fields" toml:"fields"`
	Steps         []StepDoc         `json:"steps" yaml:"steps" toml:"steps"`
	Confirmations []ConfirmationDoc `json:"confirmations,omitempty" yaml:"confirmations,omitempty" toml:"confirmations,omitempty"`
}

// FieldDoc describes one field and the built-in checks it runs.
type FieldDoc struct {
	Name            string   `json:"name" yaml:"name" toml:"name"`
	Kind            string   `json:"kind" yaml:"kind" toml:"kind"`
	Label           string   `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Required        bool     `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Step            int      `json:"step" yaml:"step" toml:"step"`
	SensitiveOnEdit bool     `json:"sensitive_on_edit,omitempty" yaml:"sensitive_on_edit,omitempty" toml:"sensitive_on_edit,omitempty"`
	Options         []string `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
	Default         any      `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`

	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty"`
	MinLength   *int     `json:"min_length,omitempty" yaml:"min_length,omitempty" toml:"min_length,omitempty"`
	MaxLength   *int     `json:"max_length,omitempty" yaml:"max_length,omitempty" toml:"max_length,omitempty"`
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	LettersOnly bool     `json:"letters_only,omitempty" yaml:"letters_only,omitempty" toml:"letters_only,omitempty"`
	DigitsOnly  bool     `json:"digits_only,omitempty" yaml:"digits_only,omitempty" toml:"digits_only,omitempty"`
	Phone       bool     `json:"phone,omitempty" yaml:"phone,omitempty" toml:"phone,omitempty"`

	// Message replaces the message of every built-in check above.
	Message         string `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
	RequiredMessage string `json:"required_message,omitempty" yaml:"required_message,omitempty" toml:"required_message,omitempty"`
	TypeMessage     string `json:"type_message,omitempty" yaml:"type_message,omitempty" toml:"type_message,omitempty"`
}

// StepDoc describes one step. SkipOn lists the modes in which the step is hidden.
type StepDoc struct {
	ID       int      `json:"id" yaml:"id" toml:"id"`
	Title    string   `json:"title" yaml:"title" toml:"title"`
	Subtitle string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty" toml:"subtitle,omitempty"`
	Fields   []string `json:"fields" yaml:"fields" toml:"fields"`
	SkipOn   []string `json:"skip_on,omitempty" yaml:"skip_on,omitempty" toml:"skip_on,omitempty"`
}

// ConfirmationDoc pairs a field with the field that must repeat it.
type ConfirmationDoc struct {
	Field        string `json:"field" yaml:"field" toml:"field"`
	ConfirmField string `json:"confirm_field" yaml:"confirm_field" toml:"confirm_field"`
	Message      string `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Parse decodes a document. Unknown keys are rejected so typos in check
// names do not silently drop a rule.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("unmarshal json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, fmt.Errorf("unmarshal toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unmarshal toml: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &doc, nil
}

// Load reads and decodes the document at path.
func Load(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data, format)
}

// LoadSchema reads the document at path and builds it.
func LoadSchema(path string) (*stepform.Schema, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// Build compiles the document into a schema.
func (d *Document) Build() (*stepform.Schema, error) {
	fields := make([]*stepform.FieldDefinition, 0, len(d.Fields))
	for i := range d.Fields {
		f, err := d.Fields[i].build()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	steps := make([]stepform.StepDefinition, 0, len(d.Steps))
	for _, sd := range d.Steps {
		skip, err := skipFunc(sd.SkipOn)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", stepform.ErrInvalidSchema, sd.ID, err)
		}
		steps = append(steps, stepform.StepDefinition{
			ID:         sd.ID,
			Title:      sd.Title,
			Subtitle:   sd.Subtitle,
			FieldNames: sd.Fields,
			SkipWhen:   skip,
		})
	}

	confs := make([]stepform.Confirmation, 0, len(d.Confirmations))
	for _, c := range d.Confirmations {
		confs = append(confs, stepform.Confirmation{
			Field:        c.Field,
			ConfirmField: c.ConfirmField,
			Message:      c.Message,
		})
	}

	return stepform.NewSchema(fields, steps, confs...)
}

func (fd *FieldDoc) build() (*stepform.FieldDefinition, error) {
	kind := stepform.FieldKind(fd.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: field '%s' has unknown kind %q", stepform.ErrInvalidSchema, fd.Name, fd.Kind)
	}

	validators, err := fd.validators()
	if err != nil {
		return nil, err
	}

	def := fd.Default
	if kind == stepform.KindNumber {
		def = normalizeNumber(def)
	}

	return &stepform.FieldDefinition{
		Name:            fd.Name,
		Kind:            kind,
		Label:           fd.Label,
		Required:        fd.Required,
		RequiredMessage: fd.RequiredMessage,
		TypeMessage:     fd.TypeMessage,
		Validators:      validators,
		StepID:          fd.Step,
		SensitiveOnEdit: fd.SensitiveOnEdit,
		Options:         fd.Options,
		Default:         def,
	}, nil
}

// validators builds the declared checks in a fixed order: length, character
// classes, pattern, phone, numeric bounds.
func (fd *FieldDoc) validators() ([]stepform.Validator, error) {
	var vs []stepform.Validator

	switch {
	case fd.MinLength != nil && fd.MaxLength != nil:
		vs = append(vs, stepform.Length(*fd.MinLength, *fd.MaxLength))
	case fd.MinLength != nil:
		vs = append(vs, stepform.MinLength(*fd.MinLength))
	case fd.MaxLength != nil:
		vs = append(vs, stepform.MaxLength(*fd.MaxLength))
	}
	if fd.LettersOnly {
		vs = append(vs, stepform.LettersAndSpaces())
	}
	if fd.DigitsOnly {
		vs = append(vs, stepform.Digits())
	}
	if fd.Pattern != "" {
		re, err := regexp.Compile(fd.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: field '%s' pattern: %v", stepform.ErrInvalidSchema, fd.Name, err)
		}
		vs = append(vs, stepform.Pattern(re, "has an invalid format"))
	}
	if fd.Phone {
		vs = append(vs, stepform.Phone())
	}
	switch {
	case fd.Min != nil && fd.Max != nil:
		vs = append(vs, stepform.Range(*fd.Min, *fd.Max))
	case fd.Min != nil:
		vs = append(vs, stepform.Min(*fd.Min))
	case fd.Max != nil:
		vs = append(vs, stepform.Max(*fd.Max))
	}

	if fd.Message != "" {
		for i, v := range vs {
			vs[i] = stepform.Msg(v, fd.Message)
		}
	}
	return vs, nil
}

func skipFunc(modes []string) (func(stepform.Mode) bool, error) {
	if len(modes) == 0 {
		return nil, nil
	}
	skip := make(map[stepform.Mode]bool, len(modes))
	for _, m := range modes {
		mode, err := stepform.ParseMode(m)
		if err != nil {
			return nil, err
		}
		skip[mode] = true
	}
	return func(m stepform.Mode) bool { return skip[m] }, nil
}

// normalizeNumber turns decoder-specific integers into float64 so defaults
// compare equal to values set at runtime.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return v
	}
}
