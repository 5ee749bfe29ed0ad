package stepform

import "context"

// Payload is the record shape handed to persistence.
type Payload map[string]any

// Submission is one validated save request.
type Submission struct {
	Mode     Mode
	RecordID string // Empty in create mode
	Payload  Payload
}

// Persister saves a submission. It is called at most once per successful Submit.
type Persister interface {
	Persist(ctx context.Context, sub Submission) error
}

// PersistFunc adapts an ordinary function to the Persister interface.
type PersistFunc func(ctx context.Context, sub Submission) error

// Persist calls f(ctx, sub).
func (f PersistFunc) Persist(ctx context.Context, sub Submission) error {
	return f(ctx, sub)
}

// BuildPayload projects field values into the persistence shape.
// Only schema fields are included. Sensitive-on-edit fields are dropped in
// edit mode, fields of skipped steps are dropped, and confirm fields never
// leave the form. It performs no validation; call it after ValidateAll came
// back empty.
func (s *Schema) BuildPayload(values Values, mode Mode) Payload {
	payload := make(Payload, len(s.Fields))
	for _, f := range s.Fields {
		if f.excludedIn(mode) || s.stepSkipped(f, mode) || s.isConfirmField(f.Name) {
			continue
		}
		if v, ok := values[f.Name]; ok {
			payload[f.Name] = v
		} else {
			payload[f.Name] = f.DefaultValue()
		}
	}
	return payload
}
