// Package domain contains core business types and interfaces.
//
// This file defines the booking submission types: the open key/value form
// payload, the metadata kept for an uploaded file, and the persisted record.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// Field Values
// =============================================================================

// FieldValue holds the value of a single form field. Forms submit either a
// plain string or, for multi-select inputs, an array of strings; both are
// normalized to a slice internally.
type FieldValue []string

// String joins multi-select values with a comma-space separator.
func (v FieldValue) String() string {
	return strings.Join(v, ", ")
}

// IsBlank reports whether the value contains no non-whitespace content.
func (v FieldValue) IsBlank() bool {
	for _, s := range v {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// MarshalJSON renders single values as a bare string and multi-select values
// as an array, preserving the shape clients submitted.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

// UnmarshalJSON accepts a string, an array of strings, or a scalar
// (number/bool/null), which is coerced to its string form. Form builders are
// inconsistent about this, so the server stays permissive.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case nil:
		*v = FieldValue{}
	case string:
		*v = FieldValue{val}
	case []interface{}:
		out := make(FieldValue, 0, len(val))
		for _, item := range val {
			s, err := coerceScalar(item)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		*v = out
	default:
		s, err := coerceScalar(val)
		if err != nil {
			return err
		}
		*v = FieldValue{s}
	}

	return nil
}

// coerceScalar converts a decoded JSON scalar to its string representation.
// Nested objects and arrays are rejected.
func coerceScalar(raw interface{}) (string, error) {
	switch val := raw.(type) {
	case string:
		return val, nil
	case float64:
		return formatNumber(val), nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported field value type %T", raw)
	}
}

// formatNumber formats a JSON number without a trailing ".0" for whole values.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// =============================================================================
// Submission
// =============================================================================

// Submission is the raw form data for one booking request: a mapping from
// form-defined field names to values. Keys are not statically fixed; unknown
// keys are carried through and never rejected.
type Submission map[string]FieldValue

// Get returns the joined string value for a key, or "" when absent.
func (s Submission) Get(key string) string {
	return s[key].String()
}

// First returns the first trimmed value for a key, or "" when absent.
func (s Submission) First(key string) string {
	v := s[key]
	if len(v) == 0 {
		return ""
	}
	return strings.TrimSpace(v[0])
}

// ContactEmail returns the submitter's email address, or "" when the field
// is missing or blank.
func (s Submission) ContactEmail() string {
	return s.First("contact_email")
}

// ContactName returns the submitter's name, or "" when missing or blank.
func (s Submission) ContactName() string {
	return s.First("contact_name")
}

// =============================================================================
// File Metadata
// =============================================================================

// FileMetadata describes an uploaded file. Only metadata is persisted; the
// raw bytes live in memory for the duration of the request and are attached
// to the admin notification email.
type FileMetadata struct {
	Filename    string `json:"filename" bson:"filename"`
	ContentType string `json:"content_type" bson:"content_type"`
	Size        int64  `json:"size" bson:"size"`
}

// FileUpload pairs file metadata with the transient raw bytes. It is owned
// by the submission handler for the request lifetime only and is never
// stored.
type FileUpload struct {
	FileMetadata
	Data []byte
}

// =============================================================================
// Booking Record
// =============================================================================

// BookingRecord is a persisted submission. The identifier and timestamp are
// assigned by the store at write time and immutable thereafter; records are
// never updated or deleted.
type BookingRecord struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	Fields    Submission    `json:"fields" bson:"fields"`
	File      *FileMetadata `json:"file,omitempty" bson:"file,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// HasFile reports whether a file was uploaded with this booking.
func (r *BookingRecord) HasFile() bool {
	return r.File != nil
}

// =============================================================================
// Field Groups
// =============================================================================

// FieldGroup is the semantic bucket a submission field is rendered under.
// Groups are computed on demand at render time and never stored.
type FieldGroup string

const (
	GroupContact   FieldGroup = "Contact"
	GroupProject   FieldGroup = "Project"
	GroupEquipment FieldGroup = "Equipment"
	GroupBilling   FieldGroup = "Billing"
	GroupMeta      FieldGroup = "Meta"
)

// String returns the display name of the group.
func (g FieldGroup) String() string {
	return string(g)
}
