package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{"DEBOUNCE", "LOG_LEVEL", "DB_PATH", "SCHEMA", "JUMP_TO_INVALID"} {
		t.Setenv("STEPFORM_"+key, "")
	}
	t.Setenv("STEPFORM_LOG_LEVEL", "error")
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
	return name
}

const validSocio = `
nombre: Ana García
email: ana@x.com
telefono: "+54 11 5555-1234"
montoCuota: 1500
password: abc123
confirmPassword: abc123
`

func TestStepsCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "steps")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1/4  Información Personal")
	assert.Contains(t, out, "Step 4/4  Acceso")

	out, err = run(t, "steps", "--mode", "edit")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 3/3  Membresía")
	assert.NotContains(t, out, "Acceso")

	_, err = run(t, "steps", "--mode", "archive")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	isolate(t)

	good := writeFile(t, "good.yaml", validSocio)
	out, err := run(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Record is valid")

	bad := writeFile(t, "bad.json", `{"nombre": "A", "email": "not-an-email"}`)
	out, err = run(t, "validate", bad)
	assert.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, out, "✗ nombre: El nombre debe tener entre 2 y 50 caracteres")
	assert.Contains(t, out, "✗ email: Email inválido")
	assert.Contains(t, out, "✗ password: La contraseña es requerida")

	out, err = run(t, "validate", bad, "--step", "1")
	assert.ErrorIs(t, err, errValidationFailed)
	assert.NotContains(t, out, "nombre")
	assert.Contains(t, out, "✗ email")

	_, err = run(t, "validate", bad, "--step", "7")
	assert.Error(t, err)
}

func TestSubmitAndListCommands(t *testing.T) {
	isolate(t)

	rec := writeFile(t, "socio.yaml", validSocio)
	out, err := run(t, "submit", rec, "--db", "test.db")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Record saved (create)")

	out, err = run(t, "list", "--db", "test.db")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana García")
	assert.NotContains(t, out, "abc123", "passwords are masked")
	assert.Contains(t, out, masked)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	id := strings.Fields(lines[1])[0]

	change := writeFile(t, "change.yaml", "nombre: Ana María García\npassword: otro999\n")
	out, err = run(t, "submit", change, "--db", "test.db", "--mode", "edit", "--id", id)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Record saved (edit)")

	out, err = run(t, "list", "--db", "test.db", "--show-secrets")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana María García")
	assert.Contains(t, out, "abc123", "edit keeps the stored password")
	assert.NotContains(t, out, "otro999", "hidden fields in the record file are skipped")
}

func TestSubmitStopsAtFailingStep(t *testing.T) {
	isolate(t)

	rec := writeFile(t, "socio.yaml", "nombre: Ana García\nemail: broken\n")
	out, err := run(t, "submit", rec, "--db", "test.db")
	assert.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, out, "Stopped at step 2 (Contacto)")
	assert.Contains(t, out, "✗ email: Email inválido")

	_, err = run(t, "submit", rec, "--db", "test.db", "--mode", "edit")
	assert.Error(t, err, "edit needs --id")
}

func TestLintCommand(t *testing.T) {
	isolate(t)

	good := writeFile(t, "form.json", `{
  "fields": [{"name": "a", "kind": "text", "label": "A", "step": 0}],
  "steps": [{"id": 0, "title": "One", "fields": ["a"]}]
}`)
	out, err := run(t, "lint", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ No issues found")

	bad := writeFile(t, "bad.toml", `
[[fields]]
name = "a"
kind = "enum"
step = 0

[[steps]]
id = 0
title = "One"
fields = ["a", "ghost"]
`)
	out, err = run(t, "lint", bad)
	assert.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, out, "✗ error [field: a]: enum field 'a' has no options")
	assert.Contains(t, out, "[field: ghost] [step: 0]")
	assert.Contains(t, out, "⚠ warning [field: a]: field 'a' has no label")

	_, err = run(t, "lint")
	assert.Error(t, err)
}

func TestCustomSchemaAndConfigInit(t *testing.T) {
	isolate(t)

	writeFile(t, "signup.yaml", `
fields:
  - {name: name, kind: text, label: Name, required: true, step: 0, min_length: 2}
steps:
  - {id: 0, title: Profile, fields: [name]}
`)
	out, err := run(t, "--schema", "signup.yaml", "--db", "signup.db", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote stepform.yml")

	// The written project config now selects the schema.
	out, err = run(t, "steps")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1/1  Profile")

	out, err = run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "schema: signup.yaml")
	assert.Contains(t, out, "db_path: signup.db")
}
