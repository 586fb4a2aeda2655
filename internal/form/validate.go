package form

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/patientor/internal/model"
)

// Validation messages shown next to the offending field.
const (
	MsgRequired         = "Field is required"
	MsgNotADate         = "Not a date"
	MsgUnknownEntryType = "Unknown entry type"
	MsgRatingRange      = "Rating must be between 0 and 3"
	MsgUnknownDiagnosis = "Unknown diagnosis code"
	MsgEndBeforeStart   = "End date is before start date"
)

var messages = map[string]string{
	"required":  MsgRequired,
	"isodate":   MsgNotADate,
	"entrytype": MsgUnknownEntryType,
	"rating":    MsgRatingRange,
	"diagnosis": MsgUnknownDiagnosis,
	"afterdate": MsgEndBeforeStart,
}

// Errors maps a form field name to its validation message.
type Errors map[string]string

func (e Errors) Empty() bool { return len(e) == 0 }

// Fields returns the names of the invalid fields in sorted order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("entrytype", func(fl validator.FieldLevel) bool {
		return model.EntryType(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}

	v.RegisterStructValidation(variantRules, Values{})
	return v
}

// IsDate reports whether s is a calendar date in DateLayout.
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// variantRules validates only the fields that belong to the selected variant.
func variantRules(sl validator.StructLevel) {
	v := sl.Current().Interface().(Values)

	switch v.Type {
	case model.EntryTypeHospital:
		requireDate(sl, v.DischargeDate, "dischargeDate", "DischargeDate")
		requireText(sl, v.DischargeCriteria, "dischargeCriteria", "DischargeCriteria")

	case model.EntryTypeHealthCheck:
		if !model.HealthCheckRating(v.HealthCheckRating).Valid() {
			sl.ReportError(v.HealthCheckRating, "healthCheckRating", "HealthCheckRating", "rating", "")
		}

	case model.EntryTypeOccupationalHealthcare:
		requireText(sl, v.EmployerName, "employerName", "EmployerName")
		if v.SickLeave {
			okStart := requireDate(sl, v.SickLeaveStartDate, "sickLeaveStartDate", "SickLeaveStartDate")
			okEnd := requireDate(sl, v.SickLeaveEndDate, "sickLeaveEndDate", "SickLeaveEndDate")
			if okStart && okEnd && v.SickLeaveEndDate < v.SickLeaveStartDate {
				sl.ReportError(v.SickLeaveEndDate, "sickLeaveEndDate", "SickLeaveEndDate", "afterdate", "")
			}
		}
	}
}

func requireText(sl validator.StructLevel, value, field, structField string) bool {
	if value == "" {
		sl.ReportError(value, field, structField, "required", "")
		return false
	}
	return true
}

func requireDate(sl validator.StructLevel, value, field, structField string) bool {
	if !requireText(sl, value, field, structField) {
		return false
	}
	if !IsDate(value) {
		sl.ReportError(value, field, structField, "isodate", "")
		return false
	}
	return true
}

// Validate checks v and returns the field-keyed validation messages. Only
// the common fields and the fields of the selected variant are checked.
func Validate(v Values) Errors {
	return ValidateAgainst(v, nil)
}

// ValidateAgainst is Validate plus a check that every selected diagnosis
// code is one of the loaded diagnoses. A nil diagnoses map skips that check.
func ValidateAgainst(v Values, diagnoses map[string]model.Diagnosis) Errors {
	errs := Errors{}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs["form"] = err.Error()
			return errs
		}
		for _, fe := range verrs {
			if errs.Has(fe.Field()) {
				continue
			}
			msg, ok := messages[fe.Tag()]
			if !ok {
				msg = fe.Error()
			}
			errs[fe.Field()] = msg
		}
	}

	if diagnoses != nil {
		for _, code := range v.DiagnosisCodes {
			if _, ok := diagnoses[code]; !ok {
				errs["diagnosisCodes"] = messages["diagnosis"]
				break
			}
		}
	}

	return errs
}
