// Package form implements the add-entry form: the flat field set collected
// from the user, its per-variant validation and the mapping of a valid field
// set onto the matching entry variant.
package form

import (
	"slices"
	"time"

	"github.com/jwalitptl/patientor/internal/model"
)

// DateLayout is the wire and input format of every date field.
const DateLayout = time.DateOnly

// Values is the flat field set of the entry form. Fields of variants other
// than Type are carried along but ignored by validation and shaping.
type Values struct {
	Type           model.EntryType `form:"type" validate:"required,entrytype"`
	Date           string          `form:"date" validate:"required,isodate"`
	Description    string          `form:"description" validate:"required"`
	Specialist     string          `form:"specialist" validate:"required"`
	DiagnosisCodes []string        `form:"diagnosisCodes"`

	DischargeDate     string `form:"dischargeDate"`
	DischargeCriteria string `form:"dischargeCriteria"`

	HealthCheckRating int `form:"healthCheckRating"`

	EmployerName       string `form:"employerName"`
	SickLeave          bool   `form:"sickLeave"`
	SickLeaveStartDate string `form:"sickLeaveStartDate"`
	SickLeaveEndDate   string `form:"sickLeaveEndDate"`
}

// Initial returns the values a freshly opened form starts with.
func Initial(today time.Time) Values {
	d := today.Format(DateLayout)
	return Values{
		Type:          model.EntryTypeHospital,
		Date:          d,
		DischargeDate: d,
	}
}

// Equal reports whether v and o hold the same field values. A nil and an
// empty diagnosis selection are equal.
func (v Values) Equal(o Values) bool {
	return v.Type == o.Type &&
		v.Date == o.Date &&
		v.Description == o.Description &&
		v.Specialist == o.Specialist &&
		slices.Equal(v.DiagnosisCodes, o.DiagnosisCodes) &&
		v.DischargeDate == o.DischargeDate &&
		v.DischargeCriteria == o.DischargeCriteria &&
		v.HealthCheckRating == o.HealthCheckRating &&
		v.EmployerName == o.EmployerName &&
		v.SickLeave == o.SickLeave &&
		v.SickLeaveStartDate == o.SickLeaveStartDate &&
		v.SickLeaveEndDate == o.SickLeaveEndDate
}

// Dirty reports whether v differs from the initial values.
func (v Values) Dirty(initial Values) bool {
	return !v.Equal(initial)
}

// CanSubmit reports whether the submit control is enabled: the form has been
// modified and carries no validation errors.
func (v Values) CanSubmit(initial Values, errs Errors) bool {
	return v.Dirty(initial) && errs.Empty()
}

// WithType switches the selected variant, keeping every entered value. The
// form posts the other variants' fields as hidden inputs so they survive the
// round trip.
func (v Values) WithType(t model.EntryType) Values {
	v.Type = t
	return v
}

// HasDiagnosis reports whether code is part of the current selection.
func (v Values) HasDiagnosis(code string) bool {
	return slices.Contains(v.DiagnosisCodes, code)
}
