package model

// Diagnosis is a coded clinical diagnosis label. Entries reference diagnoses
// by Code only.
type Diagnosis struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Latin *string `json:"latin,omitempty"`
}
