package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FilterKind discriminates the recipient filter variants
type FilterKind string

const (
	FilterByQuery   FilterKind = "query"
	FilterByVehicle FilterKind = "vehicle"
	FilterByIDs     FilterKind = "ids"
)

// Filter describes how a campaign selects its recipients. Exactly one variant
// is populated, discriminated by Kind:
//
//	query   - free-text match on contact name or phone
//	vehicle - equality/range predicates over vehicle attributes
//	ids     - an explicit contact id list (manual sends)
type Filter struct {
	Kind       FilterKind `json:"kind"`
	Query      string     `json:"query,omitempty"`
	Make       *string    `json:"make,omitempty"`
	Model      *string    `json:"model,omitempty"`
	YearMin    *int       `json:"year_min,omitempty"`
	YearMax    *int       `json:"year_max,omitempty"`
	ContactIDs []int      `json:"contact_ids,omitempty"`
}

// Validate checks the filter at the API boundary so assignment logic can
// assume a well-formed variant.
func (f *Filter) Validate() error {
	switch f.Kind {
	case FilterByQuery:
		if f.Query == "" {
			return fmt.Errorf("query filter requires a non-empty query")
		}
	case FilterByVehicle:
		if f.Make == nil && f.Model == nil && f.YearMin == nil && f.YearMax == nil {
			return fmt.Errorf("vehicle filter requires at least one predicate")
		}
		if f.YearMin != nil && f.YearMax != nil && *f.YearMin > *f.YearMax {
			return fmt.Errorf("year_min cannot exceed year_max")
		}
	case FilterByIDs:
		if len(f.ContactIDs) == 0 {
			return fmt.Errorf("ids filter requires at least one contact id")
		}
	default:
		return fmt.Errorf("invalid filter kind: %q", f.Kind)
	}
	return nil
}

// Value implements driver.Valuer so the filter persists as a JSON column
func (f *Filter) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner for reading the JSON column back
func (f *Filter) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("cannot scan %T into Filter", src)
	}
}
