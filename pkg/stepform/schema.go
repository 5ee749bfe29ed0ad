// Package stepform provides a stepped (wizard) form engine.
// It handles field schemas, per-step and whole-record validation, gated navigation
// and create/edit submission for multi-step record dialogs.
package stepform

import "fmt"

// Mode selects whether the wizard creates a new record or edits an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCreate, ModeEdit:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q (want create or edit)", s)
	}
}

// FieldKind is the value type of a field. It picks the implicit kind check
// and the default value used when a wizard is opened without a seed.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindPassword FieldKind = "password"
	KindNumber   FieldKind = "number"
	KindDate     FieldKind = "date"
	KindEnum     FieldKind = "enum"
)

// Valid reports whether k is one of the known kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindEmail, KindPassword, KindNumber, KindDate, KindEnum:
		return true
	default:
		return false
	}
}

// Validator is a pure predicate over a field value.
// It returns "" when the value passes, otherwise the message to display.
type Validator func(value any) string

// FieldDefinition describes one field of the form.
type FieldDefinition struct {
	Name            string      // Unique key
	Kind            FieldKind   // Value type
	Label           string      // Human-readable label (presentation only)
	Required        bool        // Missing values are an error
	RequiredMessage string      // Optional override for the required message
	TypeMessage     string      // Optional override for the kind check message
	Validators      []Validator // Run in order, first failure wins
	StepID          int         // Original id of the owning step
	SensitiveOnEdit bool        // Ignored for validation and submission in edit mode
	Options         []string    // Allowed values for KindEnum
	Default         any         // Overrides the kind default when not nil
}

// DefaultValue returns the value a field holds before the user touches it.
func (f *FieldDefinition) DefaultValue() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Kind {
	case KindNumber:
		return float64(0)
	case KindDate:
		return nil
	default:
		return ""
	}
}

// excludedIn reports whether the field takes no part in validation or payloads for mode.
func (f *FieldDefinition) excludedIn(mode Mode) bool {
	return f.SensitiveOnEdit && mode == ModeEdit
}

// StepDefinition is one page of the wizard.
type StepDefinition struct {
	ID         int             // 0-based position in the full step table
	Title      string          // Presentation only
	Subtitle   string          // Presentation only
	FieldNames []string        // Fields validated before the wizard may leave this step
	SkipWhen   func(Mode) bool // Drops the step from the navigable sequence
}

// Skipped reports whether the step is omitted under mode.
func (s StepDefinition) Skipped(mode Mode) bool {
	return s.SkipWhen != nil && s.SkipWhen(mode)
}

// SkipOnEdit is a SkipWhen predicate for steps that only apply to new records.
func SkipOnEdit(mode Mode) bool {
	return mode == ModeEdit
}

// Confirmation is a cross-field rule: ConfirmField must equal Field.
// It is only enforced in create mode.
type Confirmation struct {
	Field        string
	ConfirmField string
	Message      string
}

// Schema is the full declarative description of a stepped form.
type Schema struct {
	Fields        []*FieldDefinition
	Steps         []StepDefinition
	Confirmations []Confirmation

	byName map[string]*FieldDefinition
}

// NewSchema indexes fields by name and checks the structural contract the
// engine relies on: unique field names and step ids equal to their position.
func NewSchema(fields []*FieldDefinition, steps []StepDefinition, confirmations ...Confirmation) (*Schema, error) {
	s := &Schema{
		Fields:        fields,
		Steps:         steps,
		Confirmations: confirmations,
		byName:        make(map[string]*FieldDefinition, len(fields)),
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps defined", ErrInvalidSchema)
	}
	for i, step := range steps {
		if step.ID != i {
			return nil, fmt.Errorf("%w: step at position %d has id %d", ErrInvalidSchema, i, step.ID)
		}
	}
	for _, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("%w: nil field definition", ErrInvalidSchema)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field '%s'", ErrInvalidSchema, f.Name)
		}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("%w: field '%s' has unknown kind %q", ErrInvalidSchema, f.Name, f.Kind)
		}
		if f.StepID < 0 || f.StepID >= len(steps) {
			return nil, fmt.Errorf("%w: field '%s' owned by unknown step %d", ErrInvalidSchema, f.Name, f.StepID)
		}
		s.byName[f.Name] = f
	}
	for _, step := range steps {
		for _, name := range step.FieldNames {
			f, ok := s.byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: step %d lists unknown field '%s'", ErrInvalidSchema, step.ID, name)
			}
			if f.StepID != step.ID {
				return nil, fmt.Errorf("%w: field '%s' belongs to step %d but is listed by step %d", ErrInvalidSchema, name, f.StepID, step.ID)
			}
		}
	}
	for _, c := range confirmations {
		if s.byName[c.Field] == nil || s.byName[c.ConfirmField] == nil {
			return nil, fmt.Errorf("%w: confirmation %s/%s names an unknown field", ErrInvalidSchema, c.Field, c.ConfirmField)
		}
	}

	return s, nil
}

// MustSchema is NewSchema for static tables; it panics on a malformed schema.
func MustSchema(fields []*FieldDefinition, steps []StepDefinition, confirmations ...Confirmation) *Schema {
	s, err := NewSchema(fields, steps, confirmations...)
	if err != nil {
		panic(err)
	}
	return s
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (*FieldDefinition, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// EffectiveSteps returns the steps navigable under mode, in order.
// The slice position is the effective index; StepDefinition.ID keeps the original id.
func (s *Schema) EffectiveSteps(mode Mode) []StepDefinition {
	steps := make([]StepDefinition, 0, len(s.Steps))
	for _, step := range s.Steps {
		if !step.Skipped(mode) {
			steps = append(steps, step)
		}
	}
	return steps
}

// ShowsStep reports whether the step with the original id is navigable under mode.
func (s *Schema) ShowsStep(stepID int, mode Mode) bool {
	return stepID >= 0 && stepID < len(s.Steps) && !s.Steps[stepID].Skipped(mode)
}

// StepFields resolves the fields a step validates, by original step id.
func (s *Schema) StepFields(stepID int) []*FieldDefinition {
	if stepID < 0 || stepID >= len(s.Steps) {
		return nil
	}
	names := s.Steps[stepID].FieldNames
	fields := make([]*FieldDefinition, 0, len(names))
	for _, name := range names {
		if f, ok := s.byName[name]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// stepSkipped reports whether the step owning a field is skipped under mode.
func (s *Schema) stepSkipped(f *FieldDefinition, mode Mode) bool {
	return s.Steps[f.StepID].Skipped(mode)
}

// confirmationFor returns the confirmation rule a field takes part in, if any.
func (s *Schema) confirmationFor(name string) (Confirmation, bool) {
	for _, c := range s.Confirmations {
		if c.Field == name || c.ConfirmField == name {
			return c, true
		}
	}
	return Confirmation{}, false
}

// isConfirmField reports whether name only exists to confirm another field.
func (s *Schema) isConfirmField(name string) bool {
	for _, c := range s.Confirmations {
		if c.ConfirmField == name {
			return true
		}
	}
	return false
}

// Defaults returns a fresh value map holding every field's default.
func (s *Schema) Defaults() Values {
	values := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		values[f.Name] = f.DefaultValue()
	}
	return values
}
