package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/patientor/internal/model"
)

func TestStore_DispatchAndLookups(t *testing.T) {
	var seen []string
	s := New(func(a Action) { seen = append(seen, a.Type()) })

	s.Dispatch(SetPatientListAction([]model.Patient{
		{ID: "p2", Name: "Bob"},
		{ID: "p1", Name: "Alice"},
		{ID: "p0", Name: "Alice"},
	}))
	s.Dispatch(SetDiagnosesDataAction([]model.Diagnosis{
		{Code: "S62.5", Name: "Fracture of thumb"},
		{Code: "J10.1", Name: "Influenza"},
	}))

	p, ok := s.Patient("p1")
	assert.True(t, ok)
	assert.Equal(t, "Alice", p.Name)

	_, ok = s.Patient("missing")
	assert.False(t, ok)

	d, ok := s.Diagnosis("J10.1")
	assert.True(t, ok)
	assert.Equal(t, "Influenza", d.Name)

	var ids []string
	for _, p := range s.SortedPatients() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p0", "p1", "p2"}, ids)

	var codes []string
	for _, d := range s.DiagnosisList() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []string{"J10.1", "S62.5"}, codes)

	assert.Equal(t, []string{ActionSetPatientList, ActionSetDiagnosesData}, seen)
}

func TestStore_SnapshotIsStable(t *testing.T) {
	s := New()
	s.Dispatch(AddPatientAction(model.Patient{ID: "p1"}))

	snap := s.State()
	s.Dispatch(AddPatientAction(model.Patient{ID: "p2"}))

	assert.Len(t, snap.Patients, 1)
	assert.Len(t, s.State().Patients, 2)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Dispatch(AddPatientAction(model.Patient{ID: fmt.Sprintf("p%d", i)}))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.State().Patients, 50)
}
