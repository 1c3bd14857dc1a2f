package normalize

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidNationality indicates the text before a parenthesis is too short to be a nationality.
	ErrInvalidNationality = errors.New("invalid nationality")
)

var (
	spaceRe = regexp.MustCompile(`\s+`)
)

// ServiceCodeWidth is the width of the value attribute of service options.
const ServiceCodeWidth = 6

// Header canonicalizes a sheet column name: trimmed, upper-cased, inner
// whitespace collapsed and any byte order mark removed.
//
//	" first  name\r" -> "FIRST NAME"
func Header(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.ToUpper(s)
}

// Value trims a cell, including a stray carriage return from CRLF input.
func Value(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(s, "\r"))
}

// SplitFullName splits at the first space: the first word is the first
// name, the rest is the last name. ok is false when there is no space, in
// which case first is empty and last holds the whole name.
func SplitFullName(full string) (first, last string, ok bool) {
	i := strings.IndexByte(full, ' ')
	if i < 0 {
		return "", full, false
	}
	return full[:i], full[i+1:], true
}

// Nationality drops any parenthesised suffix ("Sudanese (Darfur)" ->
// "Sudanese"). What remains must be at least two characters.
func Nationality(v string) (string, error) {
	before, _, found := strings.Cut(v, "(")
	if !found {
		return v, nil
	}
	before = strings.TrimSpace(before)
	if len([]rune(before)) < 2 {
		return "", ErrInvalidNationality
	}
	return before, nil
}

// Languages splits "main, second[, ...]". total is the number of languages
// listed; only the first two are used.
func Languages(v string) (main, second string, total int) {
	if !strings.Contains(v, ",") {
		return v, "", 1
	}
	parts := strings.Split(v, ",")
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), len(parts)
}

// PadServiceCode upper-cases code and right-pads it with spaces to
// ServiceCodeWidth, matching the option values of the service dropdown.
func PadServiceCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if n := ServiceCodeWidth - len(code); n > 0 {
		code += strings.Repeat(" ", n)
	}
	return code
}
