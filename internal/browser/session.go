// Package browser drives the target application through playwright: the
// page.Page implementation, tab counting and the page-load loop.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/page"
)

// Options selects how the browser is reached.
type Options struct {
	// BaseURL is the application origin, e.g. http://rips.247lib.com.
	BaseURL    string
	// CDPURL attaches to a running browser instead of launching one.
	CDPURL     string
	// ProfileDir keeps cookies between launches so a login survives.
	ProfileDir string
	Headless   bool
}

// Session is one browser with one application tab under control.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	tab     *Tab
	base    string
	loads   chan struct{}
	log     *zap.Logger
}

// Open starts or attaches to a browser and picks the application tab,
// opening the search page in a new tab when none is open.
func Open(ctx context.Context, opts Options, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	s := &Session{
		pw:    pw,
		base:  strings.TrimRight(opts.BaseURL, "/"),
		loads: make(chan struct{}, 1),
		log:   log,
	}
	if err := s.connect(opts); err != nil {
		_ = pw.Stop()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		_ = s.Close()
		return nil, err
	}

	p := s.findTab()
	if p == nil {
		if p, err = s.bctx.NewPage(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("new page: %w", err)
		}
		if _, err := p.Goto(s.base + page.HrefSearch); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open %s: %w", page.HrefSearch, err)
		}
	}
	p.OnLoad(func(playwright.Page) { s.signal() })
	s.tab = &Tab{p: p, base: s.base}
	log.Info("browser ready", zap.String("url", p.URL()), zap.Bool("attached", opts.CDPURL != ""))
	return s, nil
}

func (s *Session) connect(opts Options) error {
	if opts.CDPURL != "" {
		b, err := s.pw.Chromium.ConnectOverCDP(opts.CDPURL)
		if err != nil {
			return fmt.Errorf("connect %s: %w", opts.CDPURL, err)
		}
		s.browser = b
		if cs := b.Contexts(); len(cs) > 0 {
			s.bctx = cs[0]
			return nil
		}
		if s.bctx, err = b.NewContext(); err != nil {
			return fmt.Errorf("new context: %w", err)
		}
		return nil
	}
	bctx, err := s.pw.Chromium.LaunchPersistentContext(opts.ProfileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	s.bctx = bctx
	return nil
}

func (s *Session) pages() []playwright.Page {
	if s.browser == nil {
		return s.bctx.Pages()
	}
	var out []playwright.Page
	for _, c := range s.browser.Contexts() {
		out = append(out, c.Pages()...)
	}
	return out
}

func (s *Session) findTab() playwright.Page {
	for _, p := range s.pages() {
		if IsAppURL(s.base, p.URL()) {
			return p
		}
	}
	return nil
}

// signal records a page load; loads that arrive while one is pending merge.
func (s *Session) signal() {
	select {
	case s.loads <- struct{}{}:
	default:
	}
}

// Page is the controlled application tab.
func (s *Session) Page() page.Page { return s.tab }

// Loads delivers one value per page load of the controlled tab.
func (s *Session) Loads() <-chan struct{} { return s.loads }

// CountTabs counts the open tabs showing the application.
func (s *Session) CountTabs(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	for _, p := range s.pages() {
		if IsAppURL(s.base, p.URL()) {
			n++
		}
	}
	return n, nil
}

// Close detaches from or shuts down the browser and stops playwright.
func (s *Session) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	} else if s.bctx != nil {
		err = s.bctx.Close()
	}
	if perr := s.pw.Stop(); err == nil {
		err = perr
	}
	return err
}

// IsAppURL reports whether u is a page of the application at base.
func IsAppURL(base, u string) bool {
	return strings.HasPrefix(u, strings.TrimRight(base, "/")+"/Stars/")
}
