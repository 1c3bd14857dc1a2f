package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateError explains why a date value was rejected.
type DateError struct {
	Value  string
	Reason string
}

func (e *DateError) Error() string { return "<Date>: " + e.Reason }

var months = map[string]int{
	"JAN": 1, "JANUARY": 1,
	"FEB": 2, "FEBRUARY": 2,
	"MAR": 3, "MARCH": 3,
	"APR": 4, "APRIL": 4,
	"MAY": 5,
	"JUN": 6, "JUNE": 6,
	"JUL": 7, "JULY": 7,
	"AUG": 8, "AUGUST": 8,
	"SEP": 9, "SEPT": 9, "SEPTEMBER": 9,
	"OCT": 10, "OCTOBER": 10,
	"NOV": 11, "NOVEMBER": 11,
	"DEC": 12, "DECEMBER": 12,
}

// MonthNumber converts a three letter or full month name to its number.
func MonthNumber(name string) (int, bool) {
	m, ok := months[strings.ToUpper(strings.TrimSpace(name))]
	return m, ok
}

// NormalizeDate converts "D-Mon-YYYY" or "D/M/YYYY" to "D/M/YYYY" without
// zero padding. A timestamp ("date time" with a colon) keeps only its date.
// Slash dates are always read day first.
func NormalizeDate(value string, now time.Time) (string, error) {
	date := strings.TrimPrefix(value, ".")
	if strings.Contains(strings.TrimSpace(date), " ") && strings.Contains(date, ":") {
		date = strings.Split(date, " ")[0]
	}

	var d, m, y int
	var err error
	switch {
	case len(strings.Split(date, "-")) == 3:
		parts := strings.Split(date, "-")
		var ok bool
		if m, ok = MonthNumber(parts[1]); !ok {
			return "", &DateError{Value: value, Reason: fmt.Sprintf("ERROR getting month # from month<%s>!", parts[1])}
		}
		if d, err = number(parts[0]); err != nil {
			return "", &DateError{Value: value, Reason: "Format is invalid"}
		}
		if y, err = number(parts[2]); err != nil {
			return "", &DateError{Value: value, Reason: "Format is invalid"}
		}
	case len(strings.Split(date, "/")) == 3:
		parts := strings.Split(date, "/")
		nums := make([]int, 3)
		for i, p := range parts {
			if nums[i], err = number(p); err != nil {
				return "", &DateError{Value: value, Reason: "Format is invalid"}
			}
		}
		d, m, y = nums[0], nums[1], nums[2]
	default:
		return "", &DateError{Value: value, Reason: "Format is invalid"}
	}

	switch {
	case d < 1 || d > 31:
		return "", &DateError{Value: value, Reason: fmt.Sprintf("Day (%d) out of range!", d)}
	case m < 1 || m > 12:
		return "", &DateError{Value: value, Reason: fmt.Sprintf("Month (%d) out of range!", m)}
	case y < 1900 || y > now.UTC().Year()+1:
		return "", &DateError{Value: value, Reason: fmt.Sprintf("Year (%d) out of range!", y)}
	}
	return fmt.Sprintf("%d/%d/%d", d, m, y), nil
}

func number(s string) (int, error) { return strconv.Atoi(strings.TrimSpace(s)) }
