package store

import "github.com/jwalitptl/patientor/internal/model"

// State is the cached view of the patients API.
type State struct {
	Patients  map[string]model.Patient
	Diagnoses map[string]model.Diagnosis
}

// Empty returns the state a new session starts with.
func Empty() State {
	return State{
		Patients:  map[string]model.Patient{},
		Diagnoses: map[string]model.Diagnosis{},
	}
}

// Reduce returns the state that results from applying action to state.
// The maps of the input state are never written to; any changed map is a
// fresh copy. Unknown actions return state unchanged.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetPatientList:
		patients := make(map[string]model.Patient, len(state.Patients)+len(a.Payload))
		for _, p := range a.Payload {
			patients[p.ID] = p
		}
		// already cached records may carry full detail; they win over summaries
		for id, p := range state.Patients {
			patients[id] = p
		}
		state.Patients = patients
		return state

	case AddPatient:
		state.Patients = upsert(state.Patients, a.Payload)
		return state

	case UpdatePatient:
		state.Patients = upsert(state.Patients, a.Payload)
		return state

	case SetDiagnosesData:
		diagnoses := make(map[string]model.Diagnosis, len(a.Payload))
		for _, d := range a.Payload {
			diagnoses[d.Code] = d
		}
		state.Diagnoses = diagnoses
		return state

	default:
		return state
	}
}

func upsert(patients map[string]model.Patient, p model.Patient) map[string]model.Patient {
	out := make(map[string]model.Patient, len(patients)+1)
	for id, existing := range patients {
		out[id] = existing
	}
	out[p.ID] = p
	return out
}
