package driver

import (
	"github.com/yourorg/rips-import/internal/search"
	"github.com/yourorg/rips-import/internal/types"
)

// forward lists, per state, the states a handler may persist next while the
// record is still in progress. Skipping, stopping and clearing are legal from
// anywhere and are not listed.
var forward = map[types.ActionState][]types.ActionState{
	types.StateNone:            {types.StateSearch},
	types.StateWaiting:         {types.StateSearch},
	types.StateFinished:        {types.StateSearch},
	types.StateRegister:        {types.StateCheckBasicData},
	types.StateCheckBasicData:  {types.StateDoNextStep, types.StateCheckServices},
	types.StateDoNextStep:      {types.StateCheckServices},
	types.StateCheckServices:   {types.StateAddService, types.StateAddActionData},
	types.StateAddService:      {types.StateAddActionData, types.StateSkipActionData},
	types.StateAddActionData:   {types.StateNextClientRedir},
	types.StateSkipActionData:  nil,
	types.StateNextClientRedir: nil,
}

func init() {
	for i, s := range search.Strategies {
		forward[types.StateSearch] = append(forward[types.StateSearch], s.Analyze)
		forward[s.Search] = []types.ActionState{s.Analyze}
		next := []types.ActionState{types.StateRegister, types.StateCheckBasicData}
		for _, later := range search.Strategies[i+1:] {
			next = append(next, later.Search)
		}
		forward[s.Analyze] = next
	}
}

// Allowed reports whether persisting to after from is a legal transition.
func Allowed(from, to types.ActionState) bool {
	switch to {
	case types.StateSearch, types.StateFinished, types.StateNone:
		return true
	}
	for _, s := range forward[from] {
		if s == to {
			return true
		}
	}
	return false
}
