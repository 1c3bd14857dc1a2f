package types

import "strings"

// Logical field names, as they appear (upper-cased) in the input header row.
const (
	FieldFirstName        = "FIRST NAME"
	FieldLastName         = "LAST NAME"
	FieldFullName         = "FULL NAME"
	FieldDateOfBirth      = "DATE OF BIRTH"
	FieldGender           = "GENDER"
	FieldNationality      = "NATIONALITY"
	FieldMainLanguage     = "MAIN LANGUAGE"
	FieldSecondLanguage   = "SECOND LANGUAGE"
	FieldPhoneNumber      = "PHONE NUMBER"
	FieldUnhcrNumber      = "UNHCR NUMBER"
	FieldStarsNumber      = "STARS NUMBER"
	FieldMainPhone        = "MAIN PHONE"
	FieldOtherPhone       = "OTHER PHONE"
	FieldServiceCode      = "SERVICE CODE"
	FieldServiceStartDate = "SERVICE START DATE"
	FieldServiceWorker    = "SERVICE CASEWORKER"
	FieldActionName       = "ACTION NAME"
	FieldActionWorker     = "ACTION CASEWORKER"
	FieldActionNotes      = "ACTION NOTES"
)

// Record is one parsed input row: logical field name to trimmed raw value.
// Records are never mutated after parsing.
type Record map[string]string

// Get returns the value of field and whether it is present and non-empty.
func (r Record) Get(field string) (string, bool) {
	v, ok := r[strings.ToUpper(field)]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Value returns the value of field or "" when absent.
func (r Record) Value(field string) string {
	v, _ := r.Get(field)
	return v
}

// Has reports whether field is present with a non-empty value.
func (r Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// Batch is the ordered set of records of one import run.
type Batch []Record

// At returns the record at i, or false when i is outside the batch.
func (b Batch) At(i int) (Record, bool) {
	if i < 0 || i >= len(b) {
		return nil, false
	}
	return b[i], true
}

// Exhausted reports whether cursor i has moved past the last record.
func (b Batch) Exhausted(i int) bool { return i >= len(b) }
