package view

import (
	"fmt"

	"github.com/jwalitptl/patientor/internal/model"
)

// RatingSlots is the fixed length of the health rating scale.
const RatingSlots = 4

// DiagnosisLine is one diagnosis code of an entry resolved against the
// loaded diagnoses. Name is empty when the code is not loaded.
type DiagnosisLine struct {
	Code string
	Name string
}

// EntryView is the render model of a single entry.
type EntryView struct {
	ID          string
	Type        model.EntryType
	Date        string
	Description string
	Specialist  string
	Diagnoses   []DiagnosisLine

	Discharge *model.Discharge

	Rating      []bool
	RatingLabel string

	EmployerName string
	SickLeave    *model.SickLeave
}

// RenderEntry builds the view of e, resolving diagnosis names from
// diagnoses.
func RenderEntry(e model.Entry, diagnoses map[string]model.Diagnosis) (EntryView, error) {
	if e == nil {
		return EntryView{}, fmt.Errorf("%w: nil entry", model.ErrUnknownEntryType)
	}

	common := e.Common()
	v := EntryView{
		ID:          common.ID,
		Type:        e.Type(),
		Date:        common.Date,
		Description: common.Description,
		Specialist:  common.Specialist,
		Diagnoses:   resolveDiagnoses(common.DiagnosisCodes, diagnoses),
	}

	switch entry := e.(type) {
	case model.HospitalEntry:
		d := entry.Discharge
		v.Discharge = &d
	case model.HealthCheckEntry:
		v.Rating = HealthRating(entry.HealthCheckRating)
		v.RatingLabel = entry.HealthCheckRating.String()
	case model.OccupationalHealthcareEntry:
		v.EmployerName = entry.EmployerName
		if entry.SickLeave != nil {
			sl := *entry.SickLeave
			v.SickLeave = &sl
		}
	default:
		return EntryView{}, fmt.Errorf("%w: %T", model.ErrUnknownEntryType, e)
	}

	return v, nil
}

// RenderEntries renders every entry in order.
func RenderEntries(entries model.Entries, diagnoses map[string]model.Diagnosis) ([]EntryView, error) {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		v, err := RenderEntry(e, diagnoses)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func resolveDiagnoses(codes []string, diagnoses map[string]model.Diagnosis) []DiagnosisLine {
	if len(codes) == 0 {
		return nil
	}
	lines := make([]DiagnosisLine, 0, len(codes))
	for _, code := range codes {
		lines = append(lines, DiagnosisLine{Code: code, Name: diagnoses[code].Name})
	}
	return lines
}

// HealthRating returns the health scale for rating r as RatingSlots slots,
// true meaning a filled heart. Filled hearts come first and their count
// equals the raw rating value. Ratings outside the scale are clamped.
//
// TODO: confirm the scale direction with the clinical team; the rating is a
// risk scale (0 = Healthy) yet the filled count grows with risk.
func HealthRating(r model.HealthCheckRating) []bool {
	if r < model.MinHealthCheckRating {
		r = model.MinHealthCheckRating
	}
	if r > model.MaxHealthCheckRating {
		r = model.MaxHealthCheckRating
	}

	slots := make([]bool, RatingSlots)
	for i := range slots {
		slots[i] = i < int(r)
	}
	return slots
}

// Filled counts the filled slots of a rating scale.
func Filled(slots []bool) int {
	n := 0
	for _, s := range slots {
		if s {
			n++
		}
	}
	return n
}
