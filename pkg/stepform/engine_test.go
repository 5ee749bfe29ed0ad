package stepform

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema is a three-step signup form: profile, contact, access.
// The access step only exists when creating.
func testSchema(t *testing.T) *Schema {
	t.Helper()

	fields := []*FieldDefinition{
		{Name: "name", Kind: KindText, Required: true, StepID: 0, Validators: []Validator{Length(2, 50), LettersAndSpaces()}},
		{Name: "age", Kind: KindNumber, StepID: 0, Validators: []Validator{Range(0, 130)}},
		{Name: "email", Kind: KindEmail, Required: true, StepID: 1},
		{Name: "phone", Kind: KindText, StepID: 1, Validators: []Validator{Phone(), MaxLength(20)}},
		{Name: "plan", Kind: KindEnum, Required: true, StepID: 1, Options: []string{"free", "pro"}, Default: "free"},
		{Name: "password", Kind: KindPassword, Required: true, SensitiveOnEdit: true, StepID: 2, Validators: []Validator{MinLength(6)}},
		{Name: "confirmPassword", Kind: KindPassword, Required: true, SensitiveOnEdit: true, StepID: 2},
	}
	steps := []StepDefinition{
		{ID: 0, Title: "Profile", FieldNames: []string{"name", "age"}},
		{ID: 1, Title: "Contact", FieldNames: []string{"email", "phone", "plan"}},
		{ID: 2, Title: "Access", FieldNames: []string{"password", "confirmPassword"}, SkipWhen: SkipOnEdit},
	}

	s, err := NewSchema(fields, steps, Confirmation{Field: "password", ConfirmField: "confirmPassword"})
	require.NoError(t, err)
	return s
}

func validValues() Values {
	return Values{
		"name":            "Ana García",
		"age":             float64(30),
		"email":           "ana@example.com",
		"phone":           "+54 (11) 5555-1234",
		"plan":            "pro",
		"password":        "abc123",
		"confirmPassword": "abc123",
	}
}

func TestValidateFieldFailFast(t *testing.T) {
	def := &FieldDefinition{
		Name:       "code",
		Kind:       KindText,
		Required:   true,
		Validators: []Validator{Msg(Length(2, 4), "first"), Msg(Digits(), "second")},
	}

	tests := []struct {
		value any
		want  ValidationResult
	}{
		{"12", ValidationResult{Valid: true}},
		{"x", ValidationResult{Message: "first"}},       // both validators fail, first wins
		{"ab", ValidationResult{Message: "second"}},     // only the second fails
		{"", ValidationResult{Message: "Field 'code' is required"}},
		{"   ", ValidationResult{Message: "Field 'code' is required"}},
		{42, ValidationResult{Message: "Field 'code' must be a string"}},
	}

	for _, tt := range tests {
		got := ValidateField(def, tt.value)
		assert.Equal(t, tt.want, got, "ValidateField(%v)", tt.value)
	}
}

func TestValidateFieldOptionalEmptySkipsValidators(t *testing.T) {
	called := false
	def := &FieldDefinition{
		Name: "nickname",
		Kind: KindText,
		Validators: []Validator{func(any) string {
			called = true
			return "never"
		}},
	}

	assert.True(t, ValidateField(def, "").Valid)
	assert.True(t, ValidateField(def, nil).Valid)
	assert.False(t, called, "validators must not run for an unset optional field")

	assert.False(t, ValidateField(def, "x").Valid)
	assert.True(t, called)
}

func TestValidateFieldKinds(t *testing.T) {
	tests := []struct {
		name  string
		def   *FieldDefinition
		value any
		valid bool
	}{
		{"number accepts float", &FieldDefinition{Name: "n", Kind: KindNumber, Required: true}, 3.5, true},
		{"number accepts int", &FieldDefinition{Name: "n", Kind: KindNumber, Required: true}, 7, true},
		{"number rejects numeric string", &FieldDefinition{Name: "n", Kind: KindNumber, Required: true}, "7", false},
		{"date accepts ISO day", &FieldDefinition{Name: "d", Kind: KindDate, Required: true}, "2024-05-01", true},
		{"date accepts time.Time", &FieldDefinition{Name: "d", Kind: KindDate, Required: true}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"date rejects garbage", &FieldDefinition{Name: "d", Kind: KindDate, Required: true}, "01/05/2024", false},
		{"enum accepts option", &FieldDefinition{Name: "e", Kind: KindEnum, Required: true, Options: []string{"a", "b"}}, "b", true},
		{"enum rejects other", &FieldDefinition{Name: "e", Kind: KindEnum, Required: true, Options: []string{"a", "b"}}, "c", false},
		{"email accepts address", &FieldDefinition{Name: "m", Kind: KindEmail, Required: true}, "ana@x.com", true},
		{"email rejects missing domain", &FieldDefinition{Name: "m", Kind: KindEmail, Required: true}, "not-an-email", false},
		{"email rejects spaces", &FieldDefinition{Name: "m", Kind: KindEmail, Required: true}, "ana @x.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateField(tt.def, tt.value)
			assert.Equal(t, tt.valid, got.Valid, "message: %q", got.Message)
		})
	}
}

func TestTypeMessageOverride(t *testing.T) {
	def := &FieldDefinition{Name: "m", Kind: KindEmail, Required: true, TypeMessage: "Email inválido"}
	assert.Equal(t, "Email inválido", ValidateField(def, "nope").Message)
}

func TestRequiredNumberZeroIsProvided(t *testing.T) {
	def := &FieldDefinition{Name: "fee", Kind: KindNumber, Required: true, Validators: []Validator{Min(0)}}
	assert.True(t, ValidateField(def, float64(0)).Valid)
	assert.False(t, ValidateField(def, nil).Valid)
}

func TestEffectiveSteps(t *testing.T) {
	s := testSchema(t)

	create := s.EffectiveSteps(ModeCreate)
	require.Len(t, create, 3)

	edit := s.EffectiveSteps(ModeEdit)
	require.Len(t, edit, 2)
	for i, step := range edit {
		assert.Equal(t, i, step.ID, "remaining steps keep their original ids")
		assert.NotEqual(t, "Access", step.Title)
	}

	assert.True(t, s.ShowsStep(2, ModeCreate))
	assert.False(t, s.ShowsStep(2, ModeEdit), "skipped step")
	assert.False(t, s.ShowsStep(3, ModeCreate), "out of range")
	assert.False(t, s.ShowsStep(-1, ModeCreate))
}

func TestStepFieldsUsesOriginalID(t *testing.T) {
	fields := []*FieldDefinition{
		{Name: "a", Kind: KindText, StepID: 0},
		{Name: "b", Kind: KindText, StepID: 1},
		{Name: "c", Kind: KindText, StepID: 2},
	}
	steps := []StepDefinition{
		{ID: 0, FieldNames: []string{"a"}},
		{ID: 1, FieldNames: []string{"b"}, SkipWhen: SkipOnEdit},
		{ID: 2, FieldNames: []string{"c"}},
	}
	s := MustSchema(fields, steps)

	edit := s.EffectiveSteps(ModeEdit)
	require.Len(t, edit, 2)
	// Effective index 1 is original step 2, which owns "c", not "b".
	owned := s.StepFields(edit[1].ID)
	require.Len(t, owned, 1)
	assert.Equal(t, "c", owned[0].Name)
}

func TestValidateStep(t *testing.T) {
	s := testSchema(t)

	values := validValues()
	assert.Empty(t, s.ValidateStep(0, values, ModeCreate))

	values["name"] = "A"
	values["email"] = "broken"
	errs := s.ValidateStep(0, values, ModeCreate)
	assert.Equal(t, Errors{"name": "must be between 2 and 50 characters"}, errs, "only step 0 fields are reported")

	assert.Empty(t, s.ValidateStep(99, values, ModeCreate), "unknown step validates nothing")
}

func TestValidateIsIdempotent(t *testing.T) {
	s := testSchema(t)
	values := validValues()
	values["name"] = "1"
	values["confirmPassword"] = "other1"

	for _, mode := range []Mode{ModeCreate, ModeEdit} {
		first := s.ValidateAll(values, mode)
		second := s.ValidateAll(values, mode)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("ValidateAll(%s) not idempotent (-first +second):\n%s", mode, diff)
		}
		for id := range s.Steps {
			a := s.ValidateStep(id, values, mode)
			b := s.ValidateStep(id, values, mode)
			if diff := cmp.Diff(a, b); diff != "" {
				t.Errorf("ValidateStep(%d, %s) not idempotent:\n%s", id, mode, diff)
			}
		}
	}
}

func TestConfirmationRule(t *testing.T) {
	s := testSchema(t)

	t.Run("mismatch reported on confirm field only", func(t *testing.T) {
		values := validValues()
		values["confirmPassword"] = "abc124"

		errs := s.ValidateStep(2, values, ModeCreate)
		assert.Equal(t, Errors{"confirmPassword": "Field 'confirmPassword' must match 'password'"}, errs)
	})

	t.Run("match passes", func(t *testing.T) {
		assert.Empty(t, s.ValidateStep(2, validValues(), ModeCreate))
	})

	t.Run("empty side does not trigger mismatch", func(t *testing.T) {
		values := validValues()
		values["confirmPassword"] = ""
		errs := s.ValidateStep(2, values, ModeCreate)
		assert.Equal(t, "Field 'confirmPassword' is required", errs["confirmPassword"])
	})

	t.Run("never fires in edit mode", func(t *testing.T) {
		values := validValues()
		values["confirmPassword"] = "abc124"
		assert.Empty(t, s.ValidateStep(2, values, ModeEdit))
		assert.Empty(t, s.ValidateAll(values, ModeEdit))
	})
}

func TestValidateAllCoversEveryStep(t *testing.T) {
	s := testSchema(t)

	values := validValues()
	values["name"] = ""
	values["phone"] = "call me"

	errs := s.ValidateAll(values, ModeCreate)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "phone")
	assert.Len(t, errs, 2)
}

func TestValidateAllEditIgnoresSensitiveFields(t *testing.T) {
	s := testSchema(t)

	values := validValues()
	values["password"] = ""
	values["confirmPassword"] = ""

	assert.Empty(t, s.ValidateAll(values, ModeEdit))
	assert.Len(t, s.ValidateAll(values, ModeCreate), 2)
}

func TestNewSchemaRejectsMalformedTables(t *testing.T) {
	steps := []StepDefinition{{ID: 0, FieldNames: []string{"a"}}}

	tests := []struct {
		name   string
		fields []*FieldDefinition
		steps  []StepDefinition
		conf   []Confirmation
	}{
		{"no steps", []*FieldDefinition{{Name: "a", Kind: KindText}}, nil, nil},
		{"duplicate field", []*FieldDefinition{{Name: "a", Kind: KindText}, {Name: "a", Kind: KindText}}, steps, nil},
		{"unknown kind", []*FieldDefinition{{Name: "a", Kind: "color"}}, steps, nil},
		{"unknown owning step", []*FieldDefinition{{Name: "a", Kind: KindText, StepID: 3}}, steps, nil},
		{"step lists unknown field", []*FieldDefinition{{Name: "b", Kind: KindText}}, steps, nil},
		{"out of order step id", []*FieldDefinition{{Name: "a", Kind: KindText}}, []StepDefinition{{ID: 1, FieldNames: []string{"a"}}}, nil},
		{"field listed by another step", []*FieldDefinition{{Name: "a", Kind: KindText, StepID: 1}, {Name: "b", Kind: KindText, StepID: 1}},
			[]StepDefinition{{ID: 0, FieldNames: []string{"a"}}, {ID: 1, FieldNames: []string{"b"}}}, nil},
		{"confirmation unknown field", []*FieldDefinition{{Name: "a", Kind: KindText}}, steps, []Confirmation{{Field: "a", ConfirmField: "z"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.fields, tt.steps, tt.conf...)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestDefaults(t *testing.T) {
	s := testSchema(t)
	want := Values{
		"name":            "",
		"age":             float64(0),
		"email":           "",
		"phone":           "",
		"plan":            "free",
		"password":        "",
		"confirmPassword": "",
	}
	if diff := cmp.Diff(want, s.Defaults()); diff != "" {
		t.Errorf("Defaults() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("edit")
	require.NoError(t, err)
	assert.Equal(t, ModeEdit, m)

	_, err = ParseMode("delete")
	assert.Error(t, err)
}
