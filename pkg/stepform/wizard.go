package stepform

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dlovans/stepform/internal/debounce"
)

// DefaultDebounce is the delay before re-validating after a field change.
const DefaultDebounce = 120 * time.Millisecond

// NavigationDirection records which way the last navigation went.
// It only drives presentation transitions.
type NavigationDirection string

const (
	DirectionForward  NavigationDirection = "forward"
	DirectionBackward NavigationDirection = "backward"
)

// WizardState is a read-only snapshot of one open session.
type WizardState struct {
	Open                bool
	Phase               Phase
	Mode                Mode
	RecordID            string
	Values              Values
	Errors              Errors
	Touched             map[string]bool
	CurrentStepIndex    int   // Index into the effective steps
	CompletedSteps      []int // Effective indices, ascending
	NavigationDirection NavigationDirection
	Submitting          bool
	SubmitError         string // Last persistence failure, cleared on the next submit
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithDebounce sets the delay for re-validation after SetFieldValue.
func WithDebounce(d time.Duration) Option {
	return func(w *Wizard) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithJumpToInvalidStep makes a blocked Submit move to the first step holding
// an error. By default the wizard stays where the user is.
func WithJumpToInvalidStep(enabled bool) Option {
	return func(w *Wizard) {
		w.jumpToInvalid = enabled
	}
}

// Wizard is the stepped form controller. It owns all session state and only
// changes it through its methods. It is safe for concurrent use; the debounce
// timer runs on its own goroutine.
type Wizard struct {
	schema        *Schema
	persister     Persister
	logger        *zap.Logger
	debounceDelay time.Duration
	jumpToInvalid bool
	debouncer     *debounce.Debouncer
	life          *lifecycle

	mu          sync.Mutex
	mode        Mode
	recordID    string
	steps       []StepDefinition
	values      Values
	errors      Errors
	touched     map[string]bool
	current     int
	completed   map[int]bool
	direction   NavigationDirection
	submitError string
	gen         uint64 // bumped to invalidate scheduled validation passes
}

// NewWizard creates a closed wizard for schema. Call Open to start a session.
func NewWizard(schema *Schema, persister Persister, opts ...Option) (*Wizard, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema is required", ErrInvalidSchema)
	}
	if persister == nil {
		return nil, fmt.Errorf("persister is required")
	}

	w := &Wizard{
		schema:        schema,
		persister:     persister,
		logger:        zap.NewNop(),
		debounceDelay: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = debounce.New(w.debounceDelay)

	life, err := newLifecycle("stepform-wizard")
	if err != nil {
		return nil, err
	}
	w.life = life

	return w, nil
}

// Schema returns the schema the wizard runs.
func (w *Wizard) Schema() *Schema {
	return w.schema
}

// Open starts a fresh session. In edit mode seed is the record being edited;
// in create mode a seed only pre-fills values. Seed keys the schema does not
// know are ignored. Opening an open wizard discards the previous session.
func (w *Wizard) Open(mode Mode, seed *Record) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.life.phase() == PhaseSubmitting {
		return ErrSubmitInProgress
	}

	steps := w.schema.EffectiveSteps(mode)
	if len(steps) == 0 {
		return fmt.Errorf("%w: no steps apply in %s mode", ErrInvalidSchema, mode)
	}

	w.discard()
	w.mode = mode
	w.steps = steps
	w.values = w.schema.Defaults()
	w.errors = Errors{}
	w.touched = make(map[string]bool)
	w.completed = make(map[int]bool)
	w.direction = DirectionForward

	if seed != nil {
		if mode == ModeEdit {
			w.recordID = seed.ID
		}
		for name, value := range seed.Values {
			if _, ok := w.schema.Field(name); !ok {
				w.logger.Debug("ignoring unknown seed field", zap.String("field", name))
				continue
			}
			w.values[name] = value
		}
	}

	w.life.send(eventOpen)
	w.logger.Debug("wizard opened",
		zap.String("mode", string(mode)),
		zap.String("record", w.recordID),
		zap.Int("steps", len(steps)))
	return nil
}

// SetFieldValue records a new value and marks the field touched. The value is
// stored immediately; re-validation is debounced and only scheduled when the
// field belongs to the current step or to a confirmation rule. Fields hidden
// in the session's mode keep their seeded value and return ErrFieldHidden.
func (w *Wizard) SetFieldValue(name string, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.life.phase() == PhaseClosed {
		return ErrNotOpen
	}
	f, ok := w.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrUnknownField, name)
	}
	if f.excludedIn(w.mode) || w.schema.stepSkipped(f, w.mode) {
		return fmt.Errorf("%w: '%s' in %s mode", ErrFieldHidden, name, w.mode)
	}

	w.values[name] = value
	w.touched[name] = true

	_, confirmed := w.schema.confirmationFor(name)
	if !w.currentOwns(name) && !confirmed {
		return nil
	}

	w.gen++
	gen := w.gen
	w.debouncer.Trigger(func() { w.revalidate(gen) })
	return nil
}

// Flush runs a pending debounced validation pass right away.
func (w *Wizard) Flush() {
	w.debouncer.Flush()
}

// revalidate is the debounced pass. It refreshes errors of touched fields in
// the current step and of fields in confirmation rules.
func (w *Wizard) revalidate(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen || w.life.phase() == PhaseClosed {
		return
	}

	names := slices.Clone(w.steps[w.current].FieldNames)
	for _, c := range w.schema.Confirmations {
		names = append(names, c.Field, c.ConfirmField)
	}
	for _, name := range names {
		if !w.touched[name] {
			continue
		}
		w.setError(name, w.schema.FieldError(name, w.values, w.mode))
	}
}

// AdvanceStep validates the current step and moves forward when it is clean.
// It reports whether navigation happened.
func (w *Wizard) AdvanceStep() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.life.phase() != PhaseEditing {
		return false
	}
	w.cancelPending()

	step := w.steps[w.current]
	errs := w.schema.ValidateStep(step.ID, w.values, w.mode)
	for _, name := range step.FieldNames {
		w.touched[name] = true
		w.setError(name, errs[name])
	}

	if len(errs) > 0 {
		w.logger.Debug("advance refused",
			zap.Int("step", w.current),
			zap.Int("errors", len(errs)))
		return false
	}

	w.completed[w.current] = true
	if w.current == len(w.steps)-1 {
		return false
	}

	w.direction = DirectionForward
	w.current++
	w.logger.Debug("advanced", zap.Int("step", w.current))
	return true
}

// RetreatStep moves back one step without validating.
func (w *Wizard) RetreatStep() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.life.phase() != PhaseEditing || w.current == 0 {
		return
	}
	w.cancelPending()
	w.direction = DirectionBackward
	w.current--
}

// GoToStep jumps to an effective step index. Any earlier step and any step
// already completed can be reached; later unvisited steps cannot.
func (w *Wizard) GoToStep(index int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.life.phase() != PhaseEditing || index < 0 || index >= len(w.steps) {
		return false
	}
	if index > w.current && !w.completed[index] {
		return false
	}
	if index == w.current {
		return true
	}

	w.cancelPending()
	if index > w.current {
		w.direction = DirectionForward
	} else {
		w.direction = DirectionBackward
	}
	w.current = index
	return true
}

// Submit validates the whole record and, when clean, persists it. It reports
// whether the record was saved; the wizard closes when it was. Validation
// failures are not errors: they land in the state's Errors. A persistence
// failure returns a *SubmitError and keeps the session open. Calls made while
// a submission is in flight do nothing.
func (w *Wizard) Submit(ctx context.Context) (bool, error) {
	w.mu.Lock()

	switch w.life.phase() {
	case PhaseClosed:
		w.mu.Unlock()
		return false, ErrNotOpen
	case PhaseSubmitting:
		w.mu.Unlock()
		w.logger.Debug("submit ignored: already submitting")
		return false, nil
	}
	w.cancelPending()

	errs := w.schema.ValidateAll(w.values, w.mode)
	if len(errs) > 0 {
		for _, f := range w.schema.Fields {
			if _, failed := errs[f.Name]; failed {
				w.touched[f.Name] = true
			}
			w.setError(f.Name, errs[f.Name])
		}
		if w.jumpToInvalid {
			w.jumpToFirstError()
		}
		w.logger.Debug("submit blocked by validation", zap.Int("errors", len(errs)))
		w.mu.Unlock()
		return false, nil
	}

	sub := Submission{
		Mode:     w.mode,
		RecordID: w.recordID,
		Payload:  w.schema.BuildPayload(w.values, w.mode),
	}
	w.submitError = ""
	w.life.send(eventSubmit)
	w.mu.Unlock()

	err := w.persist(ctx, sub)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.life.send(eventSubmitFailed)
		w.submitError = err.Error()
		w.logger.Warn("submit failed", zap.String("mode", string(sub.Mode)), zap.Error(err))
		return false, &SubmitError{Mode: sub.Mode, Err: err}
	}

	w.life.send(eventSubmitOK)
	w.logger.Debug("submitted", zap.String("mode", string(sub.Mode)), zap.String("record", sub.RecordID))
	w.discard()
	return true, nil
}

// persist calls the persister outside the lock. A panicking persister still
// leaves the wizard editable before the panic continues.
func (w *Wizard) persist(ctx context.Context, sub Submission) error {
	defer func() {
		if r := recover(); r != nil {
			w.mu.Lock()
			w.life.send(eventSubmitFailed)
			w.submitError = fmt.Sprint(r)
			w.mu.Unlock()
			panic(r)
		}
	}()
	return w.persister.Persist(ctx, sub)
}

// Close discards the session. It is refused while a submission is in flight.
func (w *Wizard) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.life.phase() {
	case PhaseClosed:
		return nil
	case PhaseSubmitting:
		return ErrSubmitInProgress
	}

	w.life.send(eventClose)
	w.discard()
	w.logger.Debug("wizard closed")
	return nil
}

// State returns a snapshot of the session. Mutating it has no effect on the wizard.
func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()

	phase := w.life.phase()
	return WizardState{
		Open:                phase != PhaseClosed,
		Phase:               phase,
		Mode:                w.mode,
		RecordID:            w.recordID,
		Values:              w.values.Clone(),
		Errors:              w.errors.Clone(),
		Touched:             cloneSet(w.touched),
		CurrentStepIndex:    w.current,
		CompletedSteps:      slices.Sorted(maps.Keys(w.completed)),
		NavigationDirection: w.direction,
		Submitting:          phase == PhaseSubmitting,
		SubmitError:         w.submitError,
	}
}

// Steps returns the effective steps of the open session.
func (w *Wizard) Steps() []StepDefinition {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.steps)
}

// CurrentStep returns the step being shown, and false when the wizard is closed.
func (w *Wizard) CurrentStep() (StepDefinition, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.steps) == 0 {
		return StepDefinition{}, false
	}
	return w.steps[w.current], true
}

// Progress returns how far through the steps the user is, as a percentage.
func (w *Wizard) Progress() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.steps) == 0 {
		return 0
	}
	return float64(w.current+1) / float64(len(w.steps)) * 100
}

// Phase returns the lifecycle phase.
func (w *Wizard) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.life.phase()
}

// currentOwns reports whether the current step validates name.
func (w *Wizard) currentOwns(name string) bool {
	return slices.Contains(w.steps[w.current].FieldNames, name)
}

func (w *Wizard) setError(name, msg string) {
	if msg == "" {
		delete(w.errors, name)
		return
	}
	w.errors[name] = msg
}

// jumpToFirstError moves to the first effective step owning a field in error.
func (w *Wizard) jumpToFirstError() {
	for i, step := range w.steps {
		for _, name := range step.FieldNames {
			if _, failed := w.errors[name]; !failed {
				continue
			}
			if i < w.current {
				w.direction = DirectionBackward
			} else if i > w.current {
				w.direction = DirectionForward
			}
			w.current = i
			return
		}
	}
}

// cancelPending invalidates any scheduled validation pass.
func (w *Wizard) cancelPending() {
	w.gen++
	w.debouncer.Cancel()
}

// discard drops all session state.
func (w *Wizard) discard() {
	w.cancelPending()
	w.mode = ""
	w.recordID = ""
	w.steps = nil
	w.values = nil
	w.errors = nil
	w.touched = nil
	w.current = 0
	w.completed = nil
	w.direction = DirectionForward
	w.submitError = ""
}

func cloneSet(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return maps.Clone(m)
}
