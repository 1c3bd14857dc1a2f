// Package popup classifies the modal alerts the target application raises
// after an action.
package popup

import (
	"context"
	"strings"
	"time"

	"github.com/yourorg/rips-import/internal/dom"
	"github.com/yourorg/rips-import/internal/wait"
)

// Known search page alert texts.
const (
	TextNoResults   = "There are 0 result have been found."
	TextManyResults = "Search results more than 100"
)

// ConfirmSelector is the alert's confirm button.
const ConfirmSelector = ".sweet-alert button.confirm"

// Kind is the classification of the current alert.
type Kind int

const (
	None Kind = iota
	Informational
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Informational:
		return "informational"
	case Fatal:
		return "fatal"
	}
	return "none"
}

// Outcome is a classified alert.
type Outcome struct {
	Kind  Kind
	Title string
	Text  string
}

// Visible reports whether any alert is shown.
func (o Outcome) Visible() bool { return o.Kind != None }

// Classify reads the alert from doc. A visible alert whose title starts with
// "warning" is informational; any other visible alert is fatal.
func Classify(doc *dom.Doc) Outcome {
	p := doc.Popup()
	if !p.Visible {
		return Outcome{Kind: None}
	}
	o := Outcome{Kind: Fatal, Title: p.Title, Text: p.Text}
	if strings.HasPrefix(strings.ToUpper(p.Title), "WARNING") {
		o.Kind = Informational
	}
	return o
}

// Source provides page snapshots.
type Source interface {
	Content(ctx context.Context) (string, error)
}

// Clicker clicks page elements.
type Clicker interface {
	Click(ctx context.Context, selector string) error
}

// AwaitAndClassify waits delay for an alert to appear, then classifies it.
func AwaitAndClassify(ctx context.Context, src Source, delay time.Duration) (Outcome, error) {
	if err := wait.Delay(ctx, delay); err != nil {
		return Outcome{}, err
	}
	content, err := src.Content(ctx)
	if err != nil {
		return Outcome{}, err
	}
	doc, err := dom.Parse(content)
	if err != nil {
		return Outcome{}, err
	}
	return Classify(doc), nil
}

// Page is what Dismiss needs from the browser tab.
type Page interface {
	Source
	Clicker
}

// Dismiss waits delay and confirms the alert if one is shown.
func Dismiss(ctx context.Context, p Page, delay time.Duration) error {
	o, err := AwaitAndClassify(ctx, p, delay)
	if err != nil || !o.Visible() {
		return err
	}
	return p.Click(ctx, ConfirmSelector)
}
