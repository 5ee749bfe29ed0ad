//go:build js && wasm

// Package main provides WASM bindings for the stepform validation engine.
// This lets a browser form validate with the same rules as the server.
package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/dlovans/stepform/pkg/formdoc"
	"github.com/dlovans/stepform/pkg/member"
	"github.com/dlovans/stepform/pkg/stepform"
)

// schema is the active form. It starts as the member form.
var schema = member.Schema()

func main() {
	js.Global().Set("StepformLoadSchema", js.FuncOf(stepformLoadSchema))
	js.Global().Set("StepformSteps", js.FuncOf(stepformSteps))
	js.Global().Set("StepformValidate", js.FuncOf(stepformValidate))

	// Keep the Go runtime alive
	select {}
}

// stepformLoadSchema replaces the active form with a JSON schema document.
// Usage: StepformLoadSchema(docJSON) -> { ok: true } | { error: string }
func stepformLoadSchema(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("StepformLoadSchema requires 1 argument: docJSON")
	}

	doc, err := formdoc.Parse([]byte(args[0].String()), formdoc.FormatJSON)
	if err != nil {
		return makeError(err.Error())
	}
	s, err := doc.Build()
	if err != nil {
		return makeError(err.Error())
	}
	schema = s
	return map[string]any{"ok": true}
}

// stepformSteps lists the effective steps for a mode.
// Usage: StepformSteps("create"|"edit") -> { result: [{id, title, subtitle, fields}] }
func stepformSteps(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("StepformSteps requires 1 argument: mode")
	}
	mode, err := stepform.ParseMode(args[0].String())
	if err != nil {
		return makeError(err.Error())
	}

	var steps []any
	for _, step := range schema.EffectiveSteps(mode) {
		fields := make([]any, len(step.FieldNames))
		for i, name := range step.FieldNames {
			fields[i] = name
		}
		steps = append(steps, map[string]any{
			"id":       step.ID,
			"title":    step.Title,
			"subtitle": step.Subtitle,
			"fields":   fields,
		})
	}
	return map[string]any{"result": steps}
}

// stepformValidate validates a record. With a step id only that step is checked.
// Usage: StepformValidate(valuesJSON, mode, stepId?) -> { valid: boolean, errors: {field: message} }
func stepformValidate(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("StepformValidate requires 2 arguments: valuesJSON, mode")
	}

	var values stepform.Values
	if err := json.Unmarshal([]byte(args[0].String()), &values); err != nil {
		return makeError("Invalid values JSON: " + err.Error())
	}
	mode, err := stepform.ParseMode(args[1].String())
	if err != nil {
		return makeError(err.Error())
	}

	var errs stepform.Errors
	if len(args) > 2 && args[2].Type() == js.TypeNumber {
		id := args[2].Int()
		if !schema.ShowsStep(id, mode) {
			return makeError(fmt.Sprintf("no step %d in %s mode", id, mode))
		}
		errs = schema.ValidateStep(id, values, mode)
	} else {
		errs = schema.ValidateAll(values, mode)
	}

	errors := make(map[string]any, len(errs))
	for name, msg := range errs {
		errors[name] = msg
	}
	return map[string]any{
		"valid":  len(errs) == 0,
		"errors": errors,
	}
}

// makeError creates a JS-friendly error response
func makeError(msg string) map[string]any {
	return map[string]any{
		"error": msg,
	}
}
