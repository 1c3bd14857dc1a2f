package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/yourorg/rips-import/internal/page"
)

// Tab implements page.Page over a playwright page.
type Tab struct {
	p    playwright.Page
	base string
}

var _ page.Page = (*Tab)(nil)

func (t *Tab) URL() string { return t.p.URL() }

func (t *Tab) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.p.Content()
}

func (t *Tab) Fill(ctx context.Context, id, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.p.Locator(page.IDSelector(id)).First().Fill(value)
}

func (t *Tab) Select(ctx context.Context, id, optionValue string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.p.Locator(page.IDSelector(id)).First().SelectOption(playwright.SelectOptionValues{
		Values: &[]string{optionValue},
	})
	return err
}

func (t *Tab) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.p.Locator(selector).First().Click()
}

// Navigate clicks the menu link for href, or loads the address directly when
// the current page has no such link.
func (t *Tab) Navigate(ctx context.Context, href string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	link := t.p.Locator(page.LinkSelector(href))
	n, err := link.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return link.First().Click()
	}
	if _, err := t.p.Goto(t.base + href); err != nil {
		return fmt.Errorf("goto %s: %w", href, err)
	}
	return nil
}

func (t *Tab) Eval(ctx context.Context, script string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if arg == nil {
		return t.p.Evaluate(script)
	}
	return t.p.Evaluate(script, arg)
}
