package store

import (
	"sort"
	"sync"

	"github.com/jwalitptl/patientor/internal/model"
)

// DispatchHook is called after every dispatch with the applied action.
type DispatchHook func(action Action)

// Store holds the current State and serializes every change through Reduce.
// It is safe for concurrent use; dispatches never interleave.
type Store struct {
	mu    sync.RWMutex
	state State
	hooks []DispatchHook
}

func New(hooks ...DispatchHook) *Store {
	return &Store{
		state: Empty(),
		hooks: hooks,
	}
}

// State returns the current state. The returned maps are shared with the
// store and must be treated as read-only.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies action to the current state.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	s.mu.Unlock()

	for _, h := range s.hooks {
		h(action)
	}
}

func (s *Store) Patient(id string) (model.Patient, bool) {
	p, ok := s.State().Patients[id]
	return p, ok
}

func (s *Store) Diagnosis(code string) (model.Diagnosis, bool) {
	d, ok := s.State().Diagnoses[code]
	return d, ok
}

// SortedPatients returns the cached patients ordered by name, then id.
func (s *Store) SortedPatients() []model.Patient {
	patients := s.State().Patients
	out := make([]model.Patient, 0, len(patients))
	for _, p := range patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DiagnosisList returns the loaded diagnoses ordered by code.
func (s *Store) DiagnosisList() []model.Diagnosis {
	diagnoses := s.State().Diagnoses
	out := make([]model.Diagnosis, 0, len(diagnoses))
	for _, d := range diagnoses {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
