package search

import (
	"fmt"
	"strings"

	"github.com/yourorg/rips-import/internal/dom"
	"github.com/yourorg/rips-import/internal/fuzzy"
	"github.com/yourorg/rips-import/internal/popup"
	"github.com/yourorg/rips-import/internal/types"
)

// ImportNames returns the first and last name to match on. FIRST NAME and
// LAST NAME win when both are set; a lone FULL NAME is split at its first
// space. Any other mix is reported as not ok.
func ImportNames(r types.Record) (first, last string, ok bool) {
	f, hasFirst := r.Get(types.FieldFirstName)
	l, hasLast := r.Get(types.FieldLastName)
	full, hasFull := r.Get(types.FieldFullName)
	switch {
	case hasFirst && hasLast:
		return f, l, true
	case hasFull && !hasFirst && !hasLast:
		first, last, found := strings.Cut(full, " ")
		if !found {
			return full, full, true
		}
		return first, last, true
	}
	return "", "", false
}

// Verdict is the meaning of a result listing.
type Verdict int

const (
	// NoMatch: nothing found, or rows found whose names differ (a relative).
	NoMatch Verdict = iota
	// Found: exactly one row matches the client's name.
	Found
	// Ambiguous: more than one row matches.
	Ambiguous
	// TooMany: the application refused to list more than 100 rows.
	TooMany
	// Unexpected: an alert the search page does not normally raise.
	Unexpected
)

func (v Verdict) String() string {
	switch v {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	case TooMany:
		return "too_many"
	case Unexpected:
		return "unexpected"
	}
	return "no_match"
}

// Analysis is the verdict plus the rows that produced it.
type Analysis struct {
	Verdict Verdict
	Matches []fuzzy.Candidate
}

// Candidates converts result rows.
func Candidates(rows []dom.ResultRow) []fuzzy.Candidate {
	out := make([]fuzzy.Candidate, len(rows))
	for i, r := range rows {
		out[i] = fuzzy.Candidate{
			Index:     r.Index,
			StarsNo:   r.StarsNo,
			UnhcrNo:   r.UnhcrNo,
			FirstName: r.FirstName,
			LastName:  r.LastName,
		}
	}
	return out
}

// AnalyzeRows matches the listed rows against the client's names.
func AnalyzeRows(rows []dom.ResultRow, first, last string, ms types.MatchSettings) (Analysis, error) {
	matches, err := fuzzy.MatchNames(Candidates(rows), first, last, ms)
	if err != nil {
		return Analysis{}, err
	}
	switch len(matches) {
	case 0:
		return Analysis{Verdict: NoMatch}, nil
	case 1:
		return Analysis{Verdict: Found, Matches: matches}, nil
	}
	return Analysis{Verdict: Ambiguous, Matches: matches}, nil
}

// AnalyzeAlert interprets the alert left on the search form after a search
// that produced no listing.
func AnalyzeAlert(o popup.Outcome) Verdict {
	if !o.Visible() {
		return NoMatch
	}
	switch o.Text {
	case popup.TextNoResults:
		return NoMatch
	case popup.TextManyResults:
		return TooMany
	}
	return Unexpected
}

// DuplicateMessage lists the StARS numbers of ambiguous matches.
func DuplicateMessage(action types.ActionState, matches []fuzzy.Candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Duplicate matching clients found [action=%s]:", action)
	for _, m := range matches {
		fmt.Fprintf(&sb, " [StARS #%s]", m.StarsNo)
	}
	return sb.String()
}

// StepKind is what happens after a search without a unique match.
type StepKind int

const (
	TryNext StepKind = iota
	Register
	Skip
)

// Step is the outcome of DecideNext. Action is set for TryNext.
type Step struct {
	Kind   StepKind
	Action types.ActionState
}

// DecideNext picks the next enabled strategy, or, once all are exhausted,
// registration or skipping according to createNew.
func DecideNext(action types.ActionState, settings types.Settings) Step {
	next := Next(action, settings.SearchSettings)
	if next != types.StateNextClient {
		return Step{Kind: TryNext, Action: next}
	}
	if settings.OtherSettings.CreateNew {
		return Step{Kind: Register}
	}
	return Step{Kind: Skip}
}
