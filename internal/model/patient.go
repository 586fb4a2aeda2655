package model

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient is the record served by the patients API. Summaries returned by the
// list endpoint leave SSN and Entries empty.
type Patient struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Gender      Gender  `json:"gender"`
	SSN         string  `json:"ssn,omitempty"`
	Occupation  string  `json:"occupation"`
	DateOfBirth string  `json:"dateOfBirth,omitempty"`
	Entries     Entries `json:"entries,omitempty"`
}

// HasDetail reports whether the full patient record has been loaded.
// The SSN is only present on the detail endpoint.
func (p Patient) HasDetail() bool {
	return p.SSN != ""
}

// WithEntry returns a copy of the patient with e appended to its entries.
// The receiver's entry slice is never written to.
func (p Patient) WithEntry(e Entry) Patient {
	entries := make(Entries, len(p.Entries), len(p.Entries)+1)
	copy(entries, p.Entries)
	p.Entries = append(entries, e)
	return p
}
