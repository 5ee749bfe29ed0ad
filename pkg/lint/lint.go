// Package lint provides static analysis for stepped form documents.
// It detects structural problems before a schema is built or run.
package lint

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/dlovans/stepform/pkg/formdoc"
	"github.com/dlovans/stepform/pkg/stepform"
)

// Issue represents a problem found during static analysis.
type Issue struct {
	Severity string `json:"severity"` // "error", "warning"
	Field    string `json:"field,omitempty"`
	Step     *int   `json:"step,omitempty"`
	Message  string `json:"message"`
}

// Result contains all issues found by the linter.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Run performs static analysis on a document without building it.
// Errors are problems Build would reject or that break navigation;
// warnings are legal but most likely unintended.
func Run(doc *formdoc.Document) *Result {
	result := &Result{
		Valid:  true,
		Issues: make([]Issue, 0),
	}

	fields := make(map[string]*formdoc.FieldDoc, len(doc.Fields))
	owner := make(map[string]int)

	if len(doc.Steps) == 0 {
		result.addError("", nil, "document defines no steps")
	}

	// Check 1: Step ids must match their position
	for i, step := range doc.Steps {
		if step.ID != i {
			result.addError("", intp(i), fmt.Sprintf("step at position %d has id %d; ids must be 0..n-1 in order", i, step.ID))
		}
		if len(step.Fields) == 0 {
			result.addWarning("", intp(step.ID), fmt.Sprintf("step %d has no fields", step.ID))
		}
		for _, mode := range step.SkipOn {
			if _, err := stepform.ParseMode(mode); err != nil {
				result.addError("", intp(step.ID), fmt.Sprintf("step %d skips unknown mode '%s'", step.ID, mode))
			}
		}
	}

	// Check 2: Field definitions
	for i := range doc.Fields {
		f := &doc.Fields[i]
		if _, dup := fields[f.Name]; dup {
			result.addError(f.Name, nil, fmt.Sprintf("field '%s' is defined more than once", f.Name))
			continue
		}
		fields[f.Name] = f

		kind := stepform.FieldKind(f.Kind)
		if !kind.Valid() {
			result.addError(f.Name, nil, fmt.Sprintf("field '%s' has unknown kind '%s'", f.Name, f.Kind))
		}
		if f.Step < 0 || f.Step >= len(doc.Steps) {
			result.addError(f.Name, intp(f.Step), fmt.Sprintf("field '%s' is owned by unknown step %d", f.Name, f.Step))
		}
		if kind == stepform.KindEnum && len(f.Options) == 0 {
			result.addError(f.Name, nil, fmt.Sprintf("enum field '%s' has no options", f.Name))
		}
		if kind == stepform.KindEnum && f.Default != nil {
			if s, ok := f.Default.(string); !ok || !slices.Contains(f.Options, s) {
				result.addWarning(f.Name, nil, fmt.Sprintf("default of '%s' is not one of its options", f.Name))
			}
		}
		if f.Pattern != "" {
			if _, err := regexp.Compile(f.Pattern); err != nil {
				result.addError(f.Name, nil, fmt.Sprintf("field '%s' has an invalid pattern: %v", f.Name, err))
			}
		}
		if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
			result.addError(f.Name, nil, fmt.Sprintf("field '%s' has min_length above max_length", f.Name))
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			result.addError(f.Name, nil, fmt.Sprintf("field '%s' has min above max", f.Name))
		}
		if f.LettersOnly && f.DigitsOnly {
			result.addWarning(f.Name, nil, fmt.Sprintf("field '%s' is both letters_only and digits_only; no value can pass", f.Name))
		}
		if f.Label == "" {
			result.addWarning(f.Name, nil, fmt.Sprintf("field '%s' has no label", f.Name))
		}
	}

	// Check 3: Step ownership
	for _, step := range doc.Steps {
		for _, name := range step.Fields {
			f, ok := fields[name]
			if !ok {
				result.addError(name, intp(step.ID), fmt.Sprintf("step %d lists unknown field '%s'", step.ID, name))
				continue
			}
			if prev, seen := owner[name]; seen {
				result.addError(name, intp(step.ID), fmt.Sprintf("field '%s' is listed by steps %d and %d", name, prev, step.ID))
				continue
			}
			owner[name] = step.ID
			if f.Step != step.ID {
				result.addError(name, intp(step.ID), fmt.Sprintf("field '%s' belongs to step %d but is listed by step %d", name, f.Step, step.ID))
			}
		}
	}
	for _, f := range doc.Fields {
		if _, listed := owner[f.Name]; !listed {
			result.addWarning(f.Name, intp(f.Step), fmt.Sprintf("field '%s' is not listed by any step and is never validated on advance", f.Name))
		}
	}

	// Check 4: Sensitive fields must disappear when editing
	for _, f := range doc.Fields {
		if !f.SensitiveOnEdit || f.Step < 0 || f.Step >= len(doc.Steps) {
			continue
		}
		if !slices.Contains(doc.Steps[f.Step].SkipOn, string(stepform.ModeEdit)) {
			result.addWarning(f.Name, intp(f.Step), fmt.Sprintf(
				"sensitive field '%s' sits on step %d, which is still shown in edit mode", f.Name, f.Step))
		}
	}

	// Check 5: Confirmations
	for _, c := range doc.Confirmations {
		primary, okPrimary := fields[c.Field]
		confirm, okConfirm := fields[c.ConfirmField]
		if !okPrimary {
			result.addError(c.Field, nil, fmt.Sprintf("confirmation names unknown field '%s'", c.Field))
		}
		if !okConfirm {
			result.addError(c.ConfirmField, nil, fmt.Sprintf("confirmation names unknown field '%s'", c.ConfirmField))
		}
		if !okPrimary || !okConfirm {
			continue
		}
		if c.Field == c.ConfirmField {
			result.addError(c.Field, nil, fmt.Sprintf("field '%s' confirms itself", c.Field))
		}
		if primary.Step != confirm.Step {
			result.addWarning(c.ConfirmField, intp(confirm.Step), fmt.Sprintf(
				"'%s' confirms '%s' from a different step", c.ConfirmField, c.Field))
		}
	}

	return result
}

func (r *Result) addError(field string, step *int, message string) {
	r.Valid = false
	r.Issues = append(r.Issues, Issue{
		Severity: "error",
		Field:    field,
		Step:     step,
		Message:  message,
	})
}

func (r *Result) addWarning(field string, step *int, message string) {
	r.Issues = append(r.Issues, Issue{
		Severity: "warning",
		Field:    field,
		Step:     step,
		Message:  message,
	})
}

func intp(i int) *int {
	return &i
}
