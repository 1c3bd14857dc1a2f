package driver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/fieldmap"
	"github.com/yourorg/rips-import/internal/form"
	"github.com/yourorg/rips-import/internal/fuzzy"
	"github.com/yourorg/rips-import/internal/page"
	"github.com/yourorg/rips-import/internal/popup"
	"github.com/yourorg/rips-import/internal/search"
	"github.com/yourorg/rips-import/internal/types"
)

func (d *Driver) advancedSearch(ctx context.Context, c *cycle) error {
	switch a := c.st.Action; {
	case a.IsSearch():
		return d.searchForClient(ctx, c)
	case a.IsAnalyze():
		return d.analyzeSearch(ctx, c)
	default:
		return d.stop(ctx, c, "Unhandled action found in AdvancedSearch: "+string(a))
	}
}

// searchForClient types the current strategy's identifier into the search
// form and submits it.
func (d *Driver) searchForClient(ctx context.Context, c *cycle) error {
	if c.st.ClientData.Exhausted(c.st.ClientIndex) {
		return d.finish(ctx)
	}
	tr, err := fieldmap.Resolve(fieldmap.Search, c.kind, c.doc)
	if err != nil {
		return d.stop(ctx, c, fieldmap.NotFoundMessage(fieldmap.Search))
	}
	if c.st.Settings == nil {
		return d.stop(ctx, c, "Import Settings <searchSettings> not found! Cancelling import.")
	}
	ss := c.st.Settings.SearchSettings
	if !ss.Any() {
		return d.stop(ctx, c, "Need to check at least one search type checkbox :)")
	}

	action := c.st.Action
	if action == types.StateSearch {
		action = search.Next(action, ss)
	}
	if action == types.StateNextClient {
		return d.skip(ctx, c, "Done searching for this client. Start next.")
	}
	strategy, ok := search.For(action)
	if !ok {
		return d.stop(ctx, c, fmt.Sprintf("SOMETHING MIGHT BE WRONG - action<%s>", action))
	}

	value, ok := c.rec.Get(strategy.Field)
	if !ok {
		return d.skip(ctx, c, fmt.Sprintf("Search value %s is undefined - search failed.", strategy.Field))
	}
	id, _ := tr.Lookup(strategy.Field)
	in := form.New(d.page, c.doc, d.log).WithClock(d.now)
	if !in.Insert(ctx, value, id, form.ByText) {
		if err := d.fieldError(ctx, c, strategy.Field); err != nil {
			return err
		}
		return d.skip(ctx, c, "Somehow something went wrong with Utils_InsertValue! Check errors on import page.")
	}
	if err := d.setAction(ctx, c, strategy.Analyze); err != nil {
		return err
	}
	return d.page.Click(ctx, searchButton)
}

// analyzeSearch reads the outcome of the last search. A listing means
// candidates to match; staying on the form means an alert explains why not.
func (d *Driver) analyzeSearch(ctx context.Context, c *cycle) error {
	action := c.st.Action
	switch {
	case page.IsSearchResults(c.url):
		return d.analyzeListing(ctx, c)
	case page.IsSearchForm(c.url):
		o, err := popup.AwaitAndClassify(ctx, d.page, d.cfg.PopupDelay)
		if err != nil {
			return err
		}
		switch search.AnalyzeAlert(o) {
		case search.NoMatch:
			return d.decideNextStep(ctx, c)
		case search.TooMany:
			return d.nextStrategyOrSkip(ctx, c,
				fmt.Sprintf("Action<%s> not specific enough to find unique client account.", action),
				"Data not specific enough to find client.")
		default:
			return d.skip(ctx, c,
				fmt.Sprintf("Error! Unhandled popup text found on search page:\"%s\", with action:%s", o.Text, action))
		}
	}
	return d.stop(ctx, c, "Moved from Advanced Search page too abruptly :(\nIt is recommended to clear data & start over")
}

func (d *Driver) analyzeListing(ctx context.Context, c *cycle) error {
	if c.st.Settings == nil {
		return d.stop(ctx, c, "Import Settings <matchSettings> not found! Cancelling import.")
	}
	ms := c.st.Settings.MatchSettings
	first, last, ok := search.ImportNames(c.rec)
	if !ok {
		return d.stop(ctx, c, "Somehow found a weird mix of first name, last name, and full name data from import. Quitting.")
	}
	analysis, err := search.AnalyzeRows(c.doc.ResultRows(), first, last, ms)
	if errors.Is(err, fuzzy.ErrNoMatchField) {
		return d.stop(ctx, c, fmt.Sprintf(
			"Import Settings bugged! matchFirst <%t> and matchLast <%t> are false or undefined somehow!",
			ms.MatchFirst, ms.MatchLast))
	}
	if err != nil {
		return err
	}

	switch analysis.Verdict {
	case search.Found:
		m := analysis.Matches[0]
		d.log.Info("client matched", zap.Int("client", c.number()), zap.String("stars_no", m.StarsNo))
		if err := d.page.Click(ctx, fmt.Sprintf("tr.grid-row >> nth=%d", m.Index)); err != nil {
			return err
		}
		if err := d.setAction(ctx, c, types.StateCheckBasicData); err != nil {
			return err
		}
		d.report(ctx, c, types.OutcomeMatched, "StARS #"+m.StarsNo)
		return d.page.Navigate(ctx, page.HrefClientDetails)
	case search.Ambiguous:
		msg := search.DuplicateMessage(c.st.Action, analysis.Matches)
		for _, m := range analysis.Matches {
			if err := d.store.AddDuplicate(ctx, m.UnhcrNo); err != nil {
				return err
			}
		}
		return d.nextStrategyOrSkip(ctx, c, msg, msg)
	}
	return d.decideNextStep(ctx, c)
}

// nextStrategyOrSkip retries with the next enabled strategy, noting msg, or
// skips the client with skipMsg when none is left.
func (d *Driver) nextStrategyOrSkip(ctx context.Context, c *cycle, msg, skipMsg string) error {
	var ss types.SearchSettings
	if c.st.Settings != nil {
		ss = c.st.Settings.SearchSettings
	}
	next := search.Next(c.st.Action, ss)
	if next == types.StateNextClient {
		return d.skip(ctx, c, skipMsg)
	}
	if err := d.store.AddMessage(ctx, msg); err != nil {
		return err
	}
	return d.navigate(ctx, c, next, page.HrefSearch)
}

// decideNextStep runs after a search found no matching client.
func (d *Driver) decideNextStep(ctx context.Context, c *cycle) error {
	if c.st.Settings == nil {
		return d.stop(ctx, c, "Import Settings <createNew> not found! Cancelling import.")
	}
	step := search.DecideNext(c.st.Action, *c.st.Settings)
	switch step.Kind {
	case search.TryNext:
		return d.navigate(ctx, c, step.Action, page.HrefSearch)
	case search.Register:
		return d.navigate(ctx, c, types.StateRegister, page.HrefRegistration)
	}
	return d.skip(ctx, c, "No matches - Settings are set to skip client creation.")
}
