// Package search holds the pure decisions of the duplicate search: which
// identifier to try next and what a result listing means.
package search

import "github.com/yourorg/rips-import/internal/types"

// Strategy is one identifier-based lookup.
type Strategy struct {
	Name    string
	Search  types.ActionState
	Analyze types.ActionState
	// Field is the record field typed into the search form.
	Field   string
	enabled func(types.SearchSettings) bool
}

// Enabled reports whether s is switched on in settings.
func (s Strategy) Enabled(settings types.SearchSettings) bool { return s.enabled(settings) }

// Strategies in priority order.
var Strategies = []Strategy{
	{
		Name: "STARS_NUMBER", Search: types.StateSearchStars, Analyze: types.StateAnalyzeStars,
		Field: types.FieldStarsNumber, enabled: func(s types.SearchSettings) bool { return s.ByStarsNumber },
	},
	{
		Name: "UNHCR_NUMBER", Search: types.StateSearchUnhcr, Analyze: types.StateAnalyzeUnhcr,
		Field: types.FieldUnhcrNumber, enabled: func(s types.SearchSettings) bool { return s.ByUnhcr },
	},
	{
		Name: "PHONE", Search: types.StateSearchPhone, Analyze: types.StateAnalyzePhone,
		Field: types.FieldMainPhone, enabled: func(s types.SearchSettings) bool { return s.ByPhone },
	},
	{
		Name: "OTHER_PHONE", Search: types.StateSearchOtherPhone, Analyze: types.StateAnalyzeOtherPhone,
		Field: types.FieldOtherPhone, enabled: func(s types.SearchSettings) bool { return s.ByOtherPhone },
	},
}

// For returns the strategy a search or analyze state belongs to.
func For(action types.ActionState) (Strategy, bool) {
	for _, s := range Strategies {
		if s.Search == action || s.Analyze == action {
			return s, true
		}
	}
	return Strategy{}, false
}

// Next returns the search state of the first enabled strategy after the one
// action belongs to. From SEARCH_FOR_CLIENT every strategy is a candidate.
// When nothing is left, or action is not a search state, it returns
// NEXT_CLIENT.
func Next(action types.ActionState, settings types.SearchSettings) types.ActionState {
	start := -1
	switch {
	case action == types.StateSearch:
		start = 0
	default:
		for i, s := range Strategies {
			if s.Search == action || s.Analyze == action {
				start = i + 1
				break
			}
		}
	}
	if start < 0 {
		return types.StateNextClient
	}
	for _, s := range Strategies[start:] {
		if s.Enabled(settings) {
			return s.Search
		}
	}
	return types.StateNextClient
}
