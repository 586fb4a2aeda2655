package view

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/jwalitptl/patientor/internal/form"
	"github.com/jwalitptl/patientor/internal/model"
)

// Page template names.
const (
	PageList   = "list.html"
	PageDetail = "detail.html"
	PageEmpty  = "empty.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// ListPage is the data of the patient list page.
type ListPage struct {
	Patients []model.Patient
}

// DetailPage is the data of the single patient page. Patient is nil when
// the patient is not known.
type DetailPage struct {
	Patient *model.Patient
	Entries []EntryView
	Form    *FormView
}

// FormView is the data of the add-entry form overlay.
type FormView struct {
	PatientID   string
	Values      form.Values
	Errors      form.Errors
	ServerError string
	Diagnoses   []model.Diagnosis
	EntryTypes  []model.EntryType
	CanSubmit   bool
}

// NewFormView assembles the overlay data for the given form state.
func NewFormView(patientID string, v, initial form.Values, errs form.Errors, diagnoses []model.Diagnosis) *FormView {
	if errs == nil {
		errs = form.Errors{}
	}
	return &FormView{
		PatientID:  patientID,
		Values:     v,
		Errors:     errs,
		Diagnoses:  diagnoses,
		EntryTypes: model.EntryTypes(),
		CanSubmit:  v.CanSubmit(initial, form.ValidateAgainst(v, nil)),
	}
}

var funcs = template.FuncMap{
	"filled": Filled,
	"label":  func(t model.EntryType) string { return t.Label() },
	"fieldError": func(errs form.Errors, field string) string {
		return errs[field]
	},
}

// Templates parses every embedded page template.
func Templates() (*template.Template, error) {
	t, err := template.New("patientor").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}
