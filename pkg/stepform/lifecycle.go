package stepform

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Phase is the controller-level state of a wizard, orthogonal to the step index.
type Phase string

const (
	PhaseClosed     Phase = "closed"
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
)

// Event types for the lifecycle machine.
const (
	eventOpen         = "OPEN"
	eventSubmit       = "SUBMIT"
	eventSubmitOK     = "SUBMIT_OK"
	eventSubmitFailed = "SUBMIT_FAILED"
	eventClose        = "CLOSE"
)

// lifecycleContext is the statekit context type. The wizard keeps its data
// itself; the machine only owns the phase.
type lifecycleContext struct{}

// lifecycle wraps the statekit interpreter driving open/submit/close.
type lifecycle struct {
	interp *statekit.Interpreter[lifecycleContext]
}

// newLifecycle builds the machine:
//
//	closed --OPEN--> editing --SUBMIT--> submitting --SUBMIT_OK--> closed
//	editing --OPEN--> editing (reopen resets the session)
//	submitting --SUBMIT_FAILED--> editing
//	editing --CLOSE--> closed
func newLifecycle(id string) (*lifecycle, error) {
	machine, err := statekit.NewMachine[lifecycleContext](id).
		WithInitial("closed").
		WithContext(lifecycleContext{}).
		State("closed").
		On(eventOpen).Target("editing").Done().
		State("editing").
		On(eventOpen).Target("editing").
		On(eventSubmit).Target("submitting").
		On(eventClose).Target("closed").Done().
		State("submitting").
		On(eventSubmitOK).Target("closed").
		On(eventSubmitFailed).Target("editing").Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("building lifecycle machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &lifecycle{interp: interp}, nil
}

func (l *lifecycle) send(event string) {
	l.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}

func (l *lifecycle) phase() Phase {
	return Phase(l.interp.State().Value)
}
