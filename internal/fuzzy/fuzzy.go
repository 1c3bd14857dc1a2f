// Package fuzzy ranks search result rows against the imported client's name
// using normalized edit distance.
package fuzzy

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/yourorg/rips-import/internal/types"
)

// Threshold is the default acceptance limit on normalized distance
// (0 is identical, 1 shares nothing).
const Threshold = 0.3

// ErrNoMatchField is returned when neither name part is enabled.
var ErrNoMatchField = errors.New("no name field enabled for matching")

// Candidate is one listed row of a search result.
type Candidate struct {
	Index     int
	StarsNo   string
	UnhcrNo   string
	FirstName string
	LastName  string
}

// Field selects the candidate text compared against the query.
type Field func(Candidate) string

func FirstName(c Candidate) string { return c.FirstName }
func LastName(c Candidate) string  { return c.LastName }

// Config controls one search.
type Config struct {
	Field     Field
	Threshold float64
}

// Match is an accepted candidate. Index points into the candidates slice.
type Match struct {
	Index int
	Score float64
}

// Search returns candidates whose field scores at or below the threshold,
// best first. Ties keep candidate order.
func Search(candidates []Candidate, query string, cfg Config) []Match {
	if cfg.Field == nil {
		return nil
	}
	limit := cfg.Threshold
	if limit <= 0 {
		limit = Threshold
	}
	q := normalize(query)
	if q == "" {
		return nil
	}
	var out []Match
	for i, c := range candidates {
		s := Score(q, cfg.Field(c))
		if s <= limit {
			out = append(out, Match{Index: i, Score: s})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score < out[b].Score })
	return out
}

// Score is the best normalized distance between query and either the whole
// text or any whitespace separated token of it.
func Score(query, text string) float64 {
	q, t := normalize(query), normalize(text)
	if q == "" || t == "" {
		return 1
	}
	best := distance(q, t)
	for _, tok := range strings.Fields(t) {
		if d := distance(q, tok); d < best {
			best = d
		}
	}
	return best
}

func distance(a, b string) float64 {
	n := utf8.RuneCountInString(a)
	if m := utf8.RuneCountInString(b); m > n {
		n = m
	}
	if n == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(n)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MatchNames applies the name match settings: with both parts enabled a
// candidate must match first and last name; otherwise the enabled part
// decides alone. The result keeps the order of the first enabled part.
func MatchNames(candidates []Candidate, first, last string, ms types.MatchSettings) ([]Candidate, error) {
	var byFirst, byLast []Match
	if ms.MatchFirst {
		byFirst = Search(candidates, first, Config{Field: FirstName})
	}
	if ms.MatchLast {
		byLast = Search(candidates, last, Config{Field: LastName})
	}

	var picked []Match
	switch {
	case ms.MatchFirst && ms.MatchLast:
		inLast := make(map[int]bool, len(byLast))
		for _, m := range byLast {
			inLast[m.Index] = true
		}
		for _, m := range byFirst {
			if inLast[m.Index] {
				picked = append(picked, m)
			}
		}
	case ms.MatchFirst:
		picked = byFirst
	case ms.MatchLast:
		picked = byLast
	default:
		return nil, ErrNoMatchField
	}

	out := make([]Candidate, 0, len(picked))
	for _, m := range picked {
		out = append(out, candidates[m.Index])
	}
	return out, nil
}
