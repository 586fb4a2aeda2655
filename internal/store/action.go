package store

import "github.com/jwalitptl/patientor/internal/model"

// Action tags.
const (
	ActionSetPatientList   = "SET_PATIENT_LIST"
	ActionAddPatient       = "ADD_PATIENT"
	ActionUpdatePatient    = "UPDATE_PATIENT"
	ActionSetDiagnosesData = "SET_DIAGNOSES_DATA"
)

// Action is a state transition request handled by Reduce.
type Action interface {
	Type() string
}

type SetPatientList struct {
	Payload []model.Patient
}

type AddPatient struct {
	Payload model.Patient
}

type UpdatePatient struct {
	Payload model.Patient
}

type SetDiagnosesData struct {
	Payload []model.Diagnosis
}

func (SetPatientList) Type() string   { return ActionSetPatientList }
func (AddPatient) Type() string       { return ActionAddPatient }
func (UpdatePatient) Type() string    { return ActionUpdatePatient }
func (SetDiagnosesData) Type() string { return ActionSetDiagnosesData }

func SetPatientListAction(patients []model.Patient) Action {
	return SetPatientList{Payload: patients}
}

func AddPatientAction(p model.Patient) Action {
	return AddPatient{Payload: p}
}

func UpdatePatientAction(p model.Patient) Action {
	return UpdatePatient{Payload: p}
}

func SetDiagnosesDataAction(diagnoses []model.Diagnosis) Action {
	return SetDiagnosesData{Payload: diagnoses}
}
