package stepform

import "fmt"

// ValidationResult is the outcome of validating one field.
type ValidationResult struct {
	Valid   bool
	Message string
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Message: msg}
}

// ValidateField checks a single value against its definition.
// Optional fields left unset are valid without running their validators.
// Otherwise the required check, the kind check and the declared validators
// run in that order and the first failure is returned.
func ValidateField(def *FieldDefinition, value any) ValidationResult {
	if !def.Required && isUnset(def, value) {
		return ValidationResult{Valid: true}
	}

	if def.Required && isBlank(value) {
		if def.RequiredMessage != "" {
			return invalid(def.RequiredMessage)
		}
		return invalid(fmt.Sprintf("Field '%s' is required", def.Name))
	}

	if msg := checkKind(def, value); msg != "" {
		if def.TypeMessage != "" {
			return invalid(def.TypeMessage)
		}
		return invalid(msg)
	}

	for _, validate := range def.Validators {
		if msg := validate(value); msg != "" {
			return invalid(msg)
		}
	}

	return ValidationResult{Valid: true}
}

// checkKind ensures a value matches its definition kind.
func checkKind(def *FieldDefinition, value any) string {
	switch def.Kind {
	case KindText, KindPassword:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("Field '%s' must be a string", def.Name)
		}

	case KindEmail:
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return fmt.Sprintf("Field '%s' must be a valid email address", def.Name)
		}

	case KindNumber:
		if _, ok := toFloat(value); !ok {
			return fmt.Sprintf("Field '%s' must be a number", def.Name)
		}

	case KindDate:
		if _, ok := parseDate(value); !ok {
			return fmt.Sprintf("Field '%s' must be a valid date", def.Name)
		}

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("Field '%s' must be a string", def.Name)
		}
		if !isValidOption(s, def.Options) {
			return fmt.Sprintf("Field '%s' value '%s' is not a valid option", def.Name, s)
		}
	}
	return ""
}

// FieldError returns the message a field shows under mode, or "" when it is
// valid. Fields excluded in mode never carry an error. For a confirm field the
// cross-field rule runs after the field's own checks: in create mode, when both
// values are present, they must be equal.
func (s *Schema) FieldError(name string, values Values, mode Mode) string {
	f, ok := s.byName[name]
	if !ok || f.excludedIn(mode) {
		return ""
	}
	if r := ValidateField(f, values[name]); !r.Valid {
		return r.Message
	}
	if mode != ModeCreate {
		return ""
	}
	for _, c := range s.Confirmations {
		if c.ConfirmField != name {
			continue
		}
		primary, confirm := values[c.Field], values[c.ConfirmField]
		if isBlank(primary) || isBlank(confirm) || equalValues(primary, confirm) {
			continue
		}
		if c.Message != "" {
			return c.Message
		}
		return fmt.Sprintf("Field '%s' must match '%s'", c.ConfirmField, c.Field)
	}
	return ""
}

// ValidateStep validates only the fields owned by one step, looked up by its
// original id. The result is empty when the step may be left.
func (s *Schema) ValidateStep(stepID int, values Values, mode Mode) Errors {
	errs := Errors{}
	for _, f := range s.StepFields(stepID) {
		if msg := s.FieldError(f.Name, values, mode); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

// ValidateAll validates every field taking part in mode, regardless of the
// step the user is on. It is the gate right before submission.
func (s *Schema) ValidateAll(values Values, mode Mode) Errors {
	errs := Errors{}
	for _, f := range s.Fields {
		if s.stepSkipped(f, mode) {
			continue
		}
		if msg := s.FieldError(f.Name, values, mode); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}
