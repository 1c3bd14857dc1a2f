// Package form fills the target application's form controls. Insertion never
// returns an error: callers get a success flag and decide whether a failure
// skips the record.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/dom"
	"github.com/yourorg/rips-import/internal/page"
)

// Mode selects how a value is interpreted.
type Mode int

const (
	// ByText is plain text for inputs and visible option text for dropdowns.
	ByText Mode = iota
	// ByCode matches dropdown options on their value attribute.
	ByCode
	// Date normalizes the value to D/M/YYYY before filling an input.
	Date
)

var (
	errNoValue    = errors.New("value or id is empty")
	errNotUnique  = errors.New("element not found or not unique")
	errNoOption   = errors.New("no matching dropdown option")
	errNotAnInput = errors.New("element is not an input")
)

// Inserter fills controls on one page snapshot.
type Inserter struct {
	page page.Page
	doc  *dom.Doc
	log  *zap.Logger
	now  func() time.Time

	// checkbox states changed since the snapshot was taken
	toggled map[string]bool
	lastErr error
}

// New returns an Inserter writing to p and reading element kinds from doc.
func New(p page.Page, doc *dom.Doc, log *zap.Logger) *Inserter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inserter{page: p, doc: doc, log: log, now: time.Now, toggled: map[string]bool{}}
}

// WithClock overrides the clock used for the date year range.
func (in *Inserter) WithClock(now func() time.Time) *Inserter {
	in.now = now
	return in
}

// Err returns the reason for the last failed insertion.
func (in *Inserter) Err() error { return in.lastErr }

// Insert puts value into the control with the given id.
func (in *Inserter) Insert(ctx context.Context, value, id string, mode Mode) bool {
	err := in.insert(ctx, value, id, mode)
	in.lastErr = err
	if err != nil {
		in.log.Debug("insert failed", zap.String("id", id), zap.String("value", value), zap.Error(err))
		return false
	}
	return true
}

func (in *Inserter) insert(ctx context.Context, value, id string, mode Mode) error {
	if value == "" || id == "" {
		return errNoValue
	}
	el, count := in.doc.Element(id)
	if count != 1 {
		return errNotUnique
	}
	switch {
	case el.IsSelect():
		return in.selectOption(ctx, el, value, id, mode)
	case el.IsCheckbox():
		return in.checkbox(ctx, el, value, id)
	case mode == Date:
		if el.Tag != "input" {
			return errNotAnInput
		}
		date, err := NormalizeDate(value, in.now())
		if err != nil {
			return err
		}
		return in.page.Fill(ctx, id, date)
	default:
		return in.page.Fill(ctx, id, strings.TrimPrefix(value, "."))
	}
}

func (in *Inserter) selectOption(ctx context.Context, el dom.Element, value, id string, mode Mode) error {
	want := strings.ToUpper(value)
	if mode != ByCode {
		want = strings.ToUpper(strings.TrimSpace(value))
	}
	for _, o := range el.Options {
		got := strings.ToUpper(strings.TrimSpace(o.Text))
		if mode == ByCode {
			// codes are padded with spaces, so no trimming
			got = strings.ToUpper(o.Value)
		}
		if got == want {
			return in.page.Select(ctx, id, o.Value)
		}
	}
	return fmt.Errorf("%w: %q", errNoOption, value)
}

func (in *Inserter) checkbox(ctx context.Context, el dom.Element, value, id string) error {
	checked := el.Checked
	if v, ok := in.toggled[id]; ok {
		checked = v
	}
	want := Truthy(value)
	if checked == want {
		return nil
	}
	if err := in.page.Click(ctx, page.IDSelector(id)); err != nil {
		return err
	}
	in.toggled[id] = want
	return nil
}

// Truthy reads a sheet cell as a checkbox state. Empty, FALSE, NO, N and 0
// mean unchecked.
func Truthy(value string) bool {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "FALSE", "NO", "N", "0":
		return false
	}
	return true
}
