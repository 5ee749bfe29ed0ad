// Package member defines the association member (socio) form: a four-step
// create/edit wizard whose access step only exists for new members.
package member

import (
	"github.com/dlovans/stepform/pkg/stepform"
)

// Field names.
const (
	FieldNombre          = "nombre"
	FieldDNI             = "dni"
	FieldFechaNacimiento = "fechaNacimiento"
	FieldEmail           = "email"
	FieldTelefono        = "telefono"
	FieldEstado          = "estado"
	FieldNumeroSocio     = "numeroSocio"
	FieldMontoCuota      = "montoCuota"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Step ids in the full table.
const (
	StepPersonal = iota
	StepContacto
	StepMembresia
	StepAcceso
)

// Estados are the membership states a member can be in.
var Estados = []string{"activo", "vencido", "pendiente", "inactivo"}

// MaxMontoCuota is the largest monthly fee accepted.
const MaxMontoCuota = 999999

// Schema returns the member form schema.
func Schema() *stepform.Schema {
	fields := []*stepform.FieldDefinition{
		{
			Name:            FieldNombre,
			Kind:            stepform.KindText,
			Label:           "Nombre completo",
			Required:        true,
			RequiredMessage: "El nombre es requerido",
			StepID:          StepPersonal,
			Validators: []stepform.Validator{
				stepform.Msg(stepform.Length(2, 50), "El nombre debe tener entre 2 y 50 caracteres"),
				stepform.Msg(stepform.LettersAndSpaces(), "El nombre solo puede contener letras y espacios"),
			},
		},
		{
			Name:   FieldDNI,
			Kind:   stepform.KindText,
			Label:  "DNI",
			StepID: StepPersonal,
			Validators: []stepform.Validator{
				stepform.Msg(stepform.Digits(), "El DNI solo puede contener números"),
				stepform.Msg(stepform.MaxLength(12), "El DNI no puede tener más de 12 dígitos"),
			},
		},
		{
			Name:        FieldFechaNacimiento,
			Kind:        stepform.KindDate,
			Label:       "Fecha de nacimiento",
			TypeMessage: "Fecha inválida",
			StepID:      StepPersonal,
		},
		{
			Name:            FieldEmail,
			Kind:            stepform.KindEmail,
			Label:           "Email",
			Required:        true,
			RequiredMessage: "El email es requerido",
			TypeMessage:     "Email inválido",
			StepID:          StepContacto,
		},
		{
			Name:   FieldTelefono,
			Kind:   stepform.KindText,
			Label:  "Teléfono",
			StepID: StepContacto,
			Validators: []stepform.Validator{
				stepform.Msg(stepform.Phone(), "Formato de teléfono inválido"),
				stepform.Msg(stepform.MaxLength(20), "El teléfono no puede tener más de 20 caracteres"),
			},
		},
		{
			Name:            FieldEstado,
			Kind:            stepform.KindEnum,
			Label:           "Estado",
			Required:        true,
			RequiredMessage: "El estado es requerido",
			TypeMessage:     "Estado inválido",
			Options:         Estados,
			Default:         "activo",
			StepID:          StepMembresia,
		},
		{
			Name:   FieldNumeroSocio,
			Kind:   stepform.KindText,
			Label:  "Número de socio",
			StepID: StepMembresia,
			Validators: []stepform.Validator{
				stepform.Msg(stepform.Digits(), "El número de socio solo puede contener números"),
				stepform.Msg(stepform.MaxLength(20), "El número de socio no puede tener más de 20 dígitos"),
			},
		},
		{
			Name:        FieldMontoCuota,
			Kind:        stepform.KindNumber,
			Label:       "Monto de cuota",
			TypeMessage: "El monto debe ser un número",
			StepID:      StepMembresia,
			Validators: []stepform.Validator{
				stepform.Msg(stepform.Min(0), "El monto no puede ser negativo"),
				stepform.Msg(stepform.Max(MaxMontoCuota), "El monto no puede superar 999999"),
			},
		},
		{
			Name:            FieldPassword,
			Kind:            stepform.KindPassword,
			Label:           "Contraseña",
			Required:        true,
			RequiredMessage: "La contraseña es requerida",
			SensitiveOnEdit: true,
			StepID:          StepAcceso,
			Validators: []stepform.Validator{
				stepform.Msg(stepform.MinLength(6), "La contraseña debe tener al menos 6 caracteres"),
			},
		},
		{
			Name:            FieldConfirmPassword,
			Kind:            stepform.KindPassword,
			Label:           "Confirmar contraseña",
			Required:        true,
			RequiredMessage: "Confirma la contraseña",
			SensitiveOnEdit: true,
			StepID:          StepAcceso,
		},
	}

	steps := []stepform.StepDefinition{
		{
			ID:         StepPersonal,
			Title:      "Información Personal",
			Subtitle:   "Datos básicos del miembro",
			FieldNames: []string{FieldNombre, FieldDNI, FieldFechaNacimiento},
		},
		{
			ID:         StepContacto,
			Title:      "Contacto",
			Subtitle:   "Información de contacto",
			FieldNames: []string{FieldEmail, FieldTelefono},
		},
		{
			ID:         StepMembresia,
			Title:      "Membresía",
			Subtitle:   "Estado y cuota",
			FieldNames: []string{FieldEstado, FieldNumeroSocio, FieldMontoCuota},
		},
		{
			ID:         StepAcceso,
			Title:      "Acceso",
			Subtitle:   "Credenciales de ingreso",
			FieldNames: []string{FieldPassword, FieldConfirmPassword},
			SkipWhen:   stepform.SkipOnEdit,
		},
	}

	return stepform.MustSchema(fields, steps, stepform.Confirmation{
		Field:        FieldPassword,
		ConfirmField: FieldConfirmPassword,
		Message:      "Las contraseñas no coinciden",
	})
}
