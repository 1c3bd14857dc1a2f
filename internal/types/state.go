package types

import "strings"

// ActionState is the persisted step of the per-record workflow. Values are
// stored verbatim, so they must stay globally unique and stable.
type ActionState string

const (
	StateNone    ActionState = ""
	StateWaiting ActionState = "WAITING"

	StateSearch            ActionState = "SEARCH_FOR_CLIENT"
	StateSearchStars       ActionState = "SEARCH_FOR_CLIENT_STARS_NUMBER"
	StateSearchUnhcr       ActionState = "SEARCH_FOR_CLIENT_UNHCR_NUMBER"
	StateSearchPhone       ActionState = "SEARCH_FOR_CLIENT_PHONE"
	StateSearchOtherPhone  ActionState = "SEARCH_FOR_CLIENT_OTHER_PHONE"
	StateAnalyzeStars      ActionState = "ANALYZE_SEARCH_RESULTS_STARS_NUMBER"
	StateAnalyzeUnhcr      ActionState = "ANALYZE_SEARCH_RESULTS_UNHCR_NUMBER"
	StateAnalyzePhone      ActionState = "ANALYZE_SEARCH_RESULTS_PHONE"
	StateAnalyzeOtherPhone ActionState = "ANALYZE_SEARCH_RESULTS_OTHER_PHONE"
	// StateNextClient is the terminal marker of the strategy order. It is
	// never persisted.
	StateNextClient ActionState = "NEXT_CLIENT"

	StateRegister        ActionState = "REGISTER_NEW_CLIENT"
	StateCheckBasicData  ActionState = "CHECK_CLIENT_BASIC_DATA"
	StateDoNextStep      ActionState = "DO_NEXT_STEP"
	StateCheckServices   ActionState = "CHECK_CLIENT_SERVICES"
	StateAddService      ActionState = "CLIENT_ADD_SERVICE"
	StateAddActionData   ActionState = "CLIENT_ADD_ACTION_DATA"
	StateSkipActionData  ActionState = "CLIENT_SKIP_ACTION_DATA"
	StateNextClientRedir ActionState = "NEXT_CLIENT_REDIRECT"
	StateFinished        ActionState = "FINISHED_STATE"
)

// AllStates lists every persisted state.
var AllStates = []ActionState{
	StateWaiting,
	StateSearch, StateSearchStars, StateSearchUnhcr, StateSearchPhone, StateSearchOtherPhone,
	StateAnalyzeStars, StateAnalyzeUnhcr, StateAnalyzePhone, StateAnalyzeOtherPhone,
	StateRegister, StateCheckBasicData, StateDoNextStep, StateCheckServices,
	StateAddService, StateAddActionData, StateSkipActionData, StateNextClientRedir,
	StateFinished,
}

// Idle reports whether the driver has nothing to do in this state.
func (s ActionState) Idle() bool {
	return s == StateNone || s == StateWaiting || s == StateFinished
}

// IsSearch reports whether s starts a search on the search page.
func (s ActionState) IsSearch() bool {
	return strings.HasPrefix(string(s), string(StateSearch))
}

// IsAnalyze reports whether s analyzes a finished search.
func (s ActionState) IsAnalyze() bool {
	return strings.HasPrefix(string(s), "ANALYZE_SEARCH_RESULTS_")
}

// Known reports whether s is one of the persisted states.
func (s ActionState) Known() bool {
	for _, k := range AllStates {
		if k == s {
			return true
		}
	}
	return s == StateNone
}
