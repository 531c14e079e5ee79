// Package scrapertest provides in-memory browser sessions for exercising the
// portal flows without Chromium. Pages are canned HTML documents parsed with
// goquery; clicks can be scripted to load another document.
package scrapertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/vehicledesc/scraper"
)

// Site is the fake web the sessions browse.
type Site struct {
	// Pages maps a URL to the HTML served for it.
	Pages map[string]string

	// Transitions maps a clicked selector to the URL loaded afterwards.
	Transitions map[string]string
}

// Launcher is a scraper.Launcher that counts launches and teardowns.
type Launcher struct {
	Site Site

	// Err, when set, is returned by every Launch.
	Err error

	// Configure, when set, is applied to every new page before it is handed
	// out.
	Configure func(*Page)

	mu       sync.Mutex
	launches int
	pages    []*Page
}

// NewLauncher creates a Launcher serving site.
func NewLauncher(site Site) *Launcher {
	return &Launcher{Site: site}
}

// Launch implements scraper.Launcher.
func (l *Launcher) Launch(ctx context.Context) (scraper.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.launches++
	if l.Err != nil {
		return nil, l.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := NewPage(l.Site)
	if l.Configure != nil {
		l.Configure(p)
	}
	l.pages = append(l.pages, p)
	return p, nil
}

// Launches returns how many sessions were requested, failed ones included.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// Closes returns how many handed-out sessions have been closed.
func (l *Launcher) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, p := range l.pages {
		if p.Closed() {
			n++
		}
	}
	return n
}

// Pages returns the sessions handed out so far.
func (l *Launcher) Pages() []*Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Page(nil), l.pages...)
}

// Page is a scraper.Page over goquery documents.
type Page struct {
	site Site

	// NotReady makes Ready always report false.
	NotReady bool

	// HTMLErr, when set, is returned by HTML.
	HTMLErr error

	// PanicOn makes any method touching this selector panic.
	PanicOn string

	mu      sync.Mutex
	doc     *goquery.Document
	url     string
	visited []string
	filled  map[string]string
	clicked []string
	closes  int
}

// NewPage creates a blank page browsing site.
func NewPage(site Site) *Page {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	return &Page{
		site:   site,
		doc:    doc,
		url:    "about:blank",
		filled: make(map[string]string),
	}
}

func (p *Page) load(url string) error {
	html, ok := p.site.Pages[url]
	if !ok {
		return fmt.Errorf("navigate %s: net::ERR_NAME_NOT_RESOLVED", url)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	p.doc = doc
	p.url = url
	p.visited = append(p.visited, url)
	return nil
}

func (p *Page) checkPanic(selector string) {
	if p.PanicOn != "" && p.PanicOn == selector {
		panic("scrapertest: induced panic on " + selector)
	}
}

// Navigate implements scraper.Page.
func (p *Page) Navigate(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(url)
}

// Ready implements scraper.Page.
func (p *Page) Ready() (bool, error) {
	return !p.NotReady, nil
}

// Has implements scraper.Page.
func (p *Page) Has(selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkPanic(selector)
	return p.doc.Find(selector).Length() > 0, nil
}

// Fill implements scraper.Page. The recorded value replaces any earlier one.
func (p *Page) Fill(selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkPanic(selector)
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", scraper.ErrElementNotFound, selector)
	}
	p.filled[selector] = value
	return nil
}

// Click implements scraper.Page, following any scripted transition.
func (p *Page) Click(selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkPanic(selector)
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", scraper.ErrElementNotFound, selector)
	}
	p.clicked = append(p.clicked, selector)
	if next, ok := p.site.Transitions[selector]; ok {
		return p.load(next)
	}
	return nil
}

// Text implements scraper.Page.
func (p *Page) Text(selector string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkPanic(selector)
	sel := p.doc.Find(selector)
	if sel.Length() == 0 {
		return "", false, nil
	}
	return sel.First().Text(), true, nil
}

// HTML implements scraper.Page.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.HTMLErr != nil {
		return "", p.HTMLErr
	}
	return p.doc.Html()
}

// Close implements scraper.Page. Closing twice is an error, so a double
// teardown shows up in tests.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	if p.closes > 1 {
		return errors.New("scrapertest: page closed twice")
	}
	return nil
}

// Closed reports whether Close has been called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes > 0
}

// CloseCount returns how many times Close has been called.
func (p *Page) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

// URL returns the current document's URL.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Visited returns every URL loaded, in order.
func (p *Page) Visited() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visited...)
}

// Filled returns the last value typed into selector.
func (p *Page) Filled(selector string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.filled[selector]
	return v, ok
}

// Clicked returns the clicked selectors, in order.
func (p *Page) Clicked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicked...)
}
