package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEntryType is returned when an entry carries a type tag that is
// not one of the known variants.
var ErrUnknownEntryType = errors.New("unknown entry type")

type EntryType string

const (
	EntryTypeHospital               EntryType = "Hospital"
	EntryTypeHealthCheck            EntryType = "HealthCheck"
	EntryTypeOccupationalHealthcare EntryType = "OccupationalHealthcare"
)

// EntryTypes lists every entry variant in display order.
func EntryTypes() []EntryType {
	return []EntryType{
		EntryTypeHospital,
		EntryTypeHealthCheck,
		EntryTypeOccupationalHealthcare,
	}
}

func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeHospital, EntryTypeHealthCheck, EntryTypeOccupationalHealthcare:
		return true
	}
	return false
}

// Label is the human readable name of the variant.
func (t EntryType) Label() string {
	switch t {
	case EntryTypeHospital:
		return "Hospital"
	case EntryTypeHealthCheck:
		return "Health check"
	case EntryTypeOccupationalHealthcare:
		return "Occupational healthcare"
	}
	return string(t)
}

type HealthCheckRating int

const (
	HealthCheckRatingHealthy HealthCheckRating = iota
	HealthCheckRatingLowRisk
	HealthCheckRatingHighRisk
	HealthCheckRatingCriticalRisk
)

const (
	MinHealthCheckRating = HealthCheckRatingHealthy
	MaxHealthCheckRating = HealthCheckRatingCriticalRisk
)

func (r HealthCheckRating) Valid() bool {
	return r >= MinHealthCheckRating && r <= MaxHealthCheckRating
}

func (r HealthCheckRating) String() string {
	switch r {
	case HealthCheckRatingHealthy:
		return "Healthy"
	case HealthCheckRatingLowRisk:
		return "LowRisk"
	case HealthCheckRatingHighRisk:
		return "HighRisk"
	case HealthCheckRatingCriticalRisk:
		return "CriticalRisk"
	}
	return fmt.Sprintf("HealthCheckRating(%d)", int(r))
}

// Entry is one clinical event attached to a patient. The set of
// implementations is closed: HospitalEntry, HealthCheckEntry and
// OccupationalHealthcareEntry.
//
// An entry with an empty ID is an entry that has not been stored yet; it is
// the body sent when creating entries.
type Entry interface {
	Type() EntryType
	Common() BaseEntry
	entry()
}

// BaseEntry holds the fields shared by every entry variant.
type BaseEntry struct {
	ID             string   `json:"id,omitempty"`
	Description    string   `json:"description"`
	Date           string   `json:"date"`
	Specialist     string   `json:"specialist"`
	DiagnosisCodes []string `json:"diagnosisCodes,omitempty"`
}

func (b BaseEntry) Common() BaseEntry { return b }

type Discharge struct {
	Date     string `json:"date"`
	Criteria string `json:"criteria"`
}

type SickLeave struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type HospitalEntry struct {
	BaseEntry
	Discharge Discharge `json:"discharge"`
}

type HealthCheckEntry struct {
	BaseEntry
	HealthCheckRating HealthCheckRating `json:"healthCheckRating"`
}

type OccupationalHealthcareEntry struct {
	BaseEntry
	EmployerName string     `json:"employerName"`
	SickLeave    *SickLeave `json:"sickLeave,omitempty"`
}

func (HospitalEntry) Type() EntryType               { return EntryTypeHospital }
func (HealthCheckEntry) Type() EntryType            { return EntryTypeHealthCheck }
func (OccupationalHealthcareEntry) Type() EntryType { return EntryTypeOccupationalHealthcare }

func (HospitalEntry) entry()               {}
func (HealthCheckEntry) entry()            {}
func (OccupationalHealthcareEntry) entry() {}

func (e HospitalEntry) MarshalJSON() ([]byte, error) {
	type plain HospitalEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{e.Type(), plain(e)})
}

func (e HealthCheckEntry) MarshalJSON() ([]byte, error) {
	type plain HealthCheckEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{e.Type(), plain(e)})
}

func (e OccupationalHealthcareEntry) MarshalJSON() ([]byte, error) {
	type plain OccupationalHealthcareEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{e.Type(), plain(e)})
}

// UnmarshalEntry decodes a single entry, picking the variant from its "type"
// field.
func UnmarshalEntry(data []byte) (Entry, error) {
	var tag struct {
		Type EntryType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode entry type: %w", err)
	}

	switch tag.Type {
	case EntryTypeHospital:
		var e HospitalEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", tag.Type, err)
		}
		return e, nil
	case EntryTypeHealthCheck:
		var e HealthCheckEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", tag.Type, err)
		}
		return e, nil
	case EntryTypeOccupationalHealthcare:
		var e OccupationalHealthcareEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", tag.Type, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntryType, tag.Type)
	}
}

// Entries is an ordered list of entries that knows how to decode its
// variants.
type Entries []Entry

func (es *Entries) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*es = nil
		return nil
	}

	out := make(Entries, 0, len(raw))
	for i, r := range raw {
		e, err := UnmarshalEntry(r)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	*es = out
	return nil
}
