// Package driver is the import state machine. Every page load re-reads the
// run state, picks the controller of the current page and runs exactly one
// handler, which persists the next state and then triggers the navigation or
// submit that causes the next page load.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/dom"
	"github.com/yourorg/rips-import/internal/metrics"
	"github.com/yourorg/rips-import/internal/page"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/types"
)

const (
	msgNoTabs       = "No RIPS tabs are open right now! Must open 1 for data import to work."
	msgFinished     = "Import Finished! Check errors above :)"
	msgStopUnknown  = "stopping import for unknown reason"
	msgUnspecified  = "<Unspecified>"
	searchButton    = `input[value="Search"]`
	saveButton      = `input[value="Save"]`
	newServicesLink = `input#NewServices`
)

// Config holds the fixed delays of the page handlers.
type Config struct {
	// PopupDelay is how long to wait for an alert to render before reading it.
	PopupDelay time.Duration
	// DismissDelay is the wait before confirming the "saved" alert.
	DismissDelay time.Duration
	// SaveDelay gives dependent dropdowns time to load before a save.
	SaveDelay time.Duration
	// PollInterval and PollAttempts bound waiting for a dropdown to populate.
	PollInterval time.Duration
	PollAttempts int
}

// DefaultConfig returns the delays the application needs in practice.
func DefaultConfig() Config {
	return Config{
		PopupDelay:   time.Second,
		DismissDelay: 1200 * time.Millisecond,
		SaveDelay:    500 * time.Millisecond,
		PollInterval: time.Second,
		PollAttempts: 6,
	}
}

// TabCounter counts the open tabs of the target application.
type TabCounter interface {
	CountTabs(ctx context.Context) (int, error)
}

// Driver runs one import over one browser tab.
type Driver struct {
	store *runstate.Store
	page  page.Page
	tabs  TabCounter
	rep   Reporter
	cfg   Config
	log   *zap.Logger
	now   func() time.Time

	runID string
}

// New returns a driver. rep may be nil.
func New(store *runstate.Store, p page.Page, tabs TabCounter, rep Reporter, cfg Config, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	if rep == nil {
		rep = Reporters{}
	}
	return &Driver{
		store: store,
		page:  p,
		tabs:  tabs,
		rep:   rep,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		runID: uuid.NewString(),
	}
}

// WithClock overrides the clock used for date validation.
func (d *Driver) WithClock(now func() time.Time) *Driver {
	d.now = now
	return d
}

// RunID identifies the current run in the audit trail.
func (d *Driver) RunID() string { return d.runID }

// State returns the persisted run state.
func (d *Driver) State(ctx context.Context) (runstate.State, error) {
	return d.store.Load(ctx)
}

// cycle is everything one page load knows.
type cycle struct {
	url  string
	kind page.Kind
	doc  *dom.Doc
	st   runstate.State
	rec  types.Record
}

// number is the 1-based client number used in messages.
func (c *cycle) number() int { return c.st.ClientIndex + 1 }

// OnPageLoad handles one page load. Errors are store or browser failures;
// every expected failure is handled by skipping or stopping.
func (d *Driver) OnPageLoad(ctx context.Context) error {
	url := d.page.URL()
	kind := page.KindFromURL(url)
	metrics.PageLoads.WithLabelValues(kind.String()).Inc()

	st, err := d.store.Load(ctx)
	if errors.Is(err, runstate.ErrSchemaVersion) {
		if st.Action.Idle() {
			return nil
		}
		return d.stop(ctx, &cycle{url: url, kind: kind, st: st}, err.Error())
	}
	if err != nil {
		return fmt.Errorf("load run state: %w", err)
	}
	d.log.Info("page load",
		zap.String("url", url),
		zap.Stringer("page", kind),
		zap.String("action", string(st.Action)),
		zap.Int("client_index", st.ClientIndex),
	)
	if st.Action.Idle() {
		return nil
	}
	if st.RunID != "" {
		// resumed runs keep the id they began with
		d.runID = st.RunID
	}

	content, err := d.page.Content(ctx)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}
	doc, err := dom.Parse(content)
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}
	c := &cycle{url: url, kind: kind, doc: doc, st: st}
	c.rec, _ = st.Client()

	switch kind {
	case page.AdvancedSearch:
		return d.advancedSearch(ctx, c)
	case page.Registration:
		return d.registration(ctx, c)
	case page.ClientBasicInformation:
		return d.clientBasicInformation(ctx, c)
	case page.Services:
		return d.services(ctx, c)
	case page.AddAction:
		return d.addAction(ctx, c)
	case page.ViewActions:
		return d.viewActions(ctx, c)
	}
	d.log.Info("no controller for page", zap.String("url", url))
	return nil
}

// Begin starts a batch. It fails without touching the batch state when the
// number of open application tabs is not exactly one.
func (d *Driver) Begin(ctx context.Context, batch types.Batch, settings types.Settings) error {
	if err := d.store.ClearLog(ctx); err != nil {
		return err
	}
	n, err := d.tabs.CountTabs(ctx)
	if err != nil {
		return fmt.Errorf("count tabs: %w", err)
	}
	switch {
	case n == 0:
		if err := d.store.AddMessage(ctx, msgNoTabs); err != nil {
			return err
		}
		return ErrNoTargetTab
	case n > 1:
		if err := d.store.AddMessage(ctx, fmt.Sprintf("Too many RIPS tabs open! Found: %d.", n)); err != nil {
			return err
		}
		return fmt.Errorf("%w: found %d", ErrTooManyTabs, n)
	}

	d.runID = uuid.NewString()
	if err := d.store.BeginRun(ctx, d.runID, batch, settings); err != nil {
		return err
	}
	d.log.Info("import started", zap.String("run_id", d.runID), zap.Int("records", len(batch)))

	if page.KindFromURL(d.page.URL()) == page.AdvancedSearch {
		return d.OnPageLoad(ctx)
	}
	return d.page.Navigate(ctx, page.HrefSearch)
}

// Clear resets the whole run state.
func (d *Driver) Clear(ctx context.Context) error {
	return d.store.Clear(ctx)
}

// Stop aborts the run from outside a page load.
func (d *Driver) Stop(ctx context.Context, msg string) error {
	st, err := d.store.Load(ctx)
	if err != nil && !errors.Is(err, runstate.ErrSchemaVersion) {
		return err
	}
	return d.stop(ctx, &cycle{url: d.page.URL(), st: st}, msg)
}

func (d *Driver) report(ctx context.Context, c *cycle, kind types.OutcomeKind, msg string) {
	n := 0
	if c != nil {
		n = c.number()
	}
	d.rep.Report(ctx, types.Outcome{
		RunID:        d.runID,
		ClientNumber: n,
		Kind:         kind,
		Message:      msg,
		CreatedAt:    d.now(),
	})
}

// setAction persists the next state. An illegal transition is logged but
// still written: the handlers are the authority, the table only documents them.
func (d *Driver) setAction(ctx context.Context, c *cycle, next types.ActionState) error {
	if !Allowed(c.st.Action, next) {
		d.log.Warn("unexpected transition",
			zap.String("from", string(c.st.Action)),
			zap.String("to", string(next)),
		)
	}
	if err := d.store.SetAction(ctx, next); err != nil {
		return fmt.Errorf("persist %s: %w", next, err)
	}
	d.log.Debug("action saved", zap.String("action", string(next)), zap.Int("client", c.number()))
	return nil
}

// navigate persists next, then moves to href.
func (d *Driver) navigate(ctx context.Context, c *cycle, next types.ActionState, href string) error {
	if err := d.setAction(ctx, c, next); err != nil {
		return err
	}
	return d.page.Navigate(ctx, href)
}

// skip abandons the current record and moves on to the next one.
func (d *Driver) skip(ctx context.Context, c *cycle, msg string) error {
	if msg == "" {
		msg = msgUnspecified
	}
	full := fmt.Sprintf("Skipping Client #%d: %s", c.number(), msg)
	if err := d.store.Skip(ctx, full); err != nil {
		return err
	}
	d.report(ctx, c, types.OutcomeSkipped, full)
	return d.page.Navigate(ctx, page.HrefSearch)
}

// nextClient finishes the current record successfully.
func (d *Driver) nextClient(ctx context.Context, c *cycle) error {
	if err := d.store.Advance(ctx); err != nil {
		return err
	}
	d.report(ctx, c, types.OutcomeCompleted, "")
	return d.page.Navigate(ctx, page.HrefSearch)
}

// stop aborts the whole batch.
func (d *Driver) stop(ctx context.Context, c *cycle, msg string) error {
	if msg == "" {
		msg = msgStopUnknown
	}
	if err := d.store.Stop(ctx, msg); err != nil {
		return err
	}
	d.report(ctx, c, types.OutcomeStopped, msg)
	return nil
}

// finish ends a batch whose records are all processed.
func (d *Driver) finish(ctx context.Context) error {
	if err := d.store.Stop(ctx, msgFinished); err != nil {
		return err
	}
	d.report(ctx, nil, types.OutcomeCompleted, msgFinished)
	return nil
}

// fieldError logs a field that could not be filled.
func (d *Driver) fieldError(ctx context.Context, c *cycle, field string) error {
	metrics.FieldFailures.Inc()
	return d.store.AddMessage(ctx, fmt.Sprintf("Field Invalid - Client #%d - Field: <%s>.", c.number(), field))
}
