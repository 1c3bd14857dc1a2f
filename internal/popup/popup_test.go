package popup

import (
	"context"
	"testing"

	"github.com/yourorg/rips-import/internal/dom"
)

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		`<div class="sweet-alert visible"><h2>Warning!</h2><p>Possible duplicate</p></div>`: Informational,
		`<div class="sweet-alert visible"><h2>warning: phone</h2><p>x</p></div>`:            Informational,
		`<div class="sweet-alert visible"><h2>Error</h2><p>UNHCR number exists</p></div>`:   Fatal,
		`<div class="sweet-alert"><h2>Error</h2><p>hidden</p></div>`:                        None,
		`<p>no alert</p>`:                                                                    None,
	}
	for in, want := range cases {
		if got := Classify(dom.MustParse(in)).Kind; got != want {
			t.Fatalf("Classify(%q)=%v; want %v", in, got, want)
		}
	}
}

type fakePage struct {
	html    string
	clicked []string
}

func (f *fakePage) Content(context.Context) (string, error) { return f.html, nil }
func (f *fakePage) Click(_ context.Context, sel string) error {
	f.clicked = append(f.clicked, sel)
	return nil
}

func TestAwaitAndClassifyCarriesText(t *testing.T) {
	p := &fakePage{html: `<div class="sweet-alert visible"><h2>Error</h2><p>Bad date</p></div>`}
	o, err := AwaitAndClassify(context.Background(), p, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Kind != Fatal || o.Text != "Bad date" {
		t.Fatalf("outcome=%+v", o)
	}
}

func TestDismissOnlyClicksVisibleAlert(t *testing.T) {
	p := &fakePage{html: `<div class="sweet-alert"></div>`}
	if err := Dismiss(context.Background(), p, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.clicked) != 0 {
		t.Fatalf("clicked %v on hidden alert", p.clicked)
	}
	p.html = `<div class="sweet-alert visible"><h2>Info</h2><p>saved</p><button class="confirm">OK</button></div>`
	if err := Dismiss(context.Background(), p, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.clicked) != 1 || p.clicked[0] != ConfirmSelector {
		t.Fatalf("clicked=%v", p.clicked)
	}
}
