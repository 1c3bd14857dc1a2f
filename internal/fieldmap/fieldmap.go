// Package fieldmap resolves logical import field names to the element ids of
// the target application's forms.
package fieldmap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourorg/rips-import/internal/dom"
	"github.com/yourorg/rips-import/internal/page"
	"github.com/yourorg/rips-import/internal/types"
)

// ErrNoTranslator is returned when a whole translator kind is unavailable.
var ErrNoTranslator = errors.New("field translator not found")

// Kind selects one translator table.
type Kind string

const (
	Required Kind = "Required"
	Optional Kind = "Optional"
	Search   Kind = "Search"
	Service  Kind = "Service"
	Action   Kind = "Action"
)

// Translator maps upper-case field names to element ids.
type Translator map[string]string

// Lookup returns the element id for field.
func (t Translator) Lookup(field string) (string, bool) {
	id, ok := t[strings.ToUpper(strings.TrimSpace(field))]
	return id, ok && id != ""
}

// Fields returns the field names in t. Order is unspecified.
func (t Translator) Fields() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	return out
}

var required = Translator{
	types.FieldFirstName:      "LFIRSTNAME",
	types.FieldLastName:       "LSURNAME",
	types.FieldDateOfBirth:    "LDATEOFBIRTH",
	types.FieldGender:         "LGENDER",
	types.FieldNationality:    "LNATIONALITY",
	types.FieldMainLanguage:   "LMAINLANGUAGE",
	types.FieldPhoneNumber:    "CDAdrMobileLabel",
	types.FieldUnhcrNumber:    "UNHCRIdentifier",
	types.FieldSecondLanguage: "LSECONDLANGUAGE",
}

var search = Translator{
	types.FieldStarsNumber: "NruNo",
	types.FieldUnhcrNumber: "HoRefNo",
	types.FieldMainPhone:   "mobile",
	types.FieldOtherPhone:  "telephone",
}

var service = Translator{
	types.FieldServiceCode:      "lscCodeValue",
	types.FieldServiceWorker:    "CASEWORKERID",
	types.FieldServiceStartDate: "DATE_OF_MATTER_START",
}

var action = Translator{
	types.FieldActionName:   "ddlActions",
	types.FieldActionWorker: "CASEWORKERID",
	types.FieldServiceCode:  "ddlServices",
}

var optional = Translator{
	// text
	"ADDRESS1":                "LADDRESS1",
	"ADDRESS2":                "LADDRESS2",
	"OTHER PHONE NUMBER":      "CDAdrTelLabel",
	"EMAIL ADDRESS":           "CDLongField1",
	"APPOINTMENT SLIP NUMBER": "CDIdentifier1",
	"CARITAS NUMBER":          "CDIdentifier2",
	"CRS NUMBER":              "CDIdentifier3",
	"IOM NUMBER":              "CDIdentifier4",
	"MSF NUMBER":              "CDIdentifier5",
	"STARS STUDENT NUMBER":    "CDIdentifier6",
	// checkboxes
	"CARE":                   "IsCBLabel1",
	"CRS":                    "IsCBLabel2",
	"EFRRA/ACSFT":            "IsCBLabel3",
	"IOM":                    "IsCBLabel4",
	"MSF":                    "IsCBLabel5",
	"PSTIC":                  "IsCBLabel6",
	"REFUGE EGYPT":           "IsCBLabel7",
	"SAVE THE CHILDREN":      "IsCBLabel8",
	"UNICEF/TDH":             "IsCBLabel9",
	"OTHER SERVICE PROVIDER": "IsCBLabel10",
	// dropdowns
	"COUNTRY OF ORIGIN":          "LCOUNTRYOFORIGIN",
	"ETHNIC ORIGIN":              "LETHNICORIGIN",
	types.FieldSecondLanguage:    "LSECONDLANGUAGE",
	"MARITAL STATUS":             "LMARITALSTATUS",
	"RELIGION":                   "Dropdown1",
	"UNHCR STATUS":               "Dropdown2",
	"SOURCE OF REFERRAL":         "Dropdown3",
	"CITY OF ORIGIN":             "Dropdown4",
	"VILLAGE OF ORIGIN":          "Dropdown4",
	"EMPLOYMENT STATUS":          "Dropdown5",
	"NEIGHBORHOOD":               "Dropdown6",
	"HIGHEST EDUCATION":          "Dropdown7",
	"LAST RSD UPDATE":            "LPRIORITY",
	"DATE OF ARRIVAL IN EGYPT":   "CDDateEntryCountryLabel",
	"DATE OF UNHCR REGISTRATION": "CDDateRegisteredLabel",
	"RSD DATE":                   "LRSDDATE",
}

// clientDetailsExtra is only available on the client details page, where
// the dependents, notes and vulnerability sections are rendered.
var clientDetailsExtra = Translator{
	"FAMILY SIZE":            "CDDependentStatsLabel1",
	"UNHCR CASE SIZE":        "CDDependentStatsLabel2",
	"DIRECT BENEFICIARIES":   "CDDependentStatsLabel3",
	"INDIRECT BENEFICIARIES": "CDDependentStatsLabel4",
	"URGENT NOTES":           "ClntPanic_PANIC_NOTES",
	"IMPORTANT INFORMATION":  "LIMPORTANTINFO",
	"VULNERABILITY NOTES":    "DescNotes",
}

var dateFields = map[string]bool{
	"DATE OF ARRIVAL IN EGYPT":   true,
	"DATE OF UNHCR REGISTRATION": true,
	"RSD DATE":                   true,
	"LAST RSD UPDATE":            true,
	types.FieldDateOfBirth:       true,
	types.FieldServiceStartDate:  true,
}

// IsDateField reports whether field holds a date.
func IsDateField(field string) bool { return dateFields[strings.ToUpper(strings.TrimSpace(field))] }

var static = map[Kind]Translator{
	Required: required,
	Search:   search,
	Service:  service,
	Action:   action,
}

// Resolve returns the translator of the given kind. The Optional translator
// is extended with the client details fields when current is the client
// details page; vulnerability labels are read from doc on every call.
func Resolve(kind Kind, current page.Kind, doc *dom.Doc) (Translator, error) {
	if kind == Optional {
		return resolveOptional(current, doc), nil
	}
	t, ok := static[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoTranslator, kind)
	}
	return clone(t), nil
}

// NotFoundMessage is the log line written when a translator is unavailable.
func NotFoundMessage(kind Kind) string {
	return fmt.Sprintf("Field Translator [type=%q] not found! Cancelling import", string(kind))
}

func resolveOptional(current page.Kind, doc *dom.Doc) Translator {
	t := clone(optional)
	if current != page.ClientBasicInformation {
		return t
	}
	for k, v := range clientDetailsExtra {
		t[k] = v
	}
	if doc != nil {
		for label, id := range doc.VulnerabilityLabels() {
			t[label] = id
		}
	}
	return t
}

func clone(t Translator) Translator {
	out := make(Translator, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
