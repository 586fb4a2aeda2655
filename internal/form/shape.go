package form

import (
	"fmt"
	"slices"

	"github.com/jwalitptl/patientor/internal/model"
)

// Shape maps the flat field set onto the entry variant selected by Type.
// The returned entry has no ID. Values must be valid.
func Shape(v Values) (model.Entry, error) {
	base := model.BaseEntry{
		Description: v.Description,
		Date:        v.Date,
		Specialist:  v.Specialist,
	}
	if len(v.DiagnosisCodes) > 0 {
		base.DiagnosisCodes = slices.Clone(v.DiagnosisCodes)
	}

	switch v.Type {
	case model.EntryTypeHospital:
		return model.HospitalEntry{
			BaseEntry: base,
			Discharge: model.Discharge{
				Date:     v.DischargeDate,
				Criteria: v.DischargeCriteria,
			},
		}, nil

	case model.EntryTypeHealthCheck:
		return model.HealthCheckEntry{
			BaseEntry:         base,
			HealthCheckRating: model.HealthCheckRating(v.HealthCheckRating),
		}, nil

	case model.EntryTypeOccupationalHealthcare:
		e := model.OccupationalHealthcareEntry{
			BaseEntry:    base,
			EmployerName: v.EmployerName,
		}
		if v.SickLeave {
			e.SickLeave = &model.SickLeave{
				StartDate: v.SickLeaveStartDate,
				EndDate:   v.SickLeaveEndDate,
			}
		}
		return e, nil

	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownEntryType, v.Type)
	}
}
