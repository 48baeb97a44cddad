// Package page provides a headless page: a parsed document, its block
// layout, a scrollable viewport and synchronous event dispatch. It is
// the environment the lazy loader runs against outside a browser.
package page

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"particlex/pkg/html"
	"particlex/pkg/layout"
	"particlex/pkg/lazyload"
)

type Page struct {
	doc       *html.Document
	tree      *layout.Tree
	width     float64
	height    float64
	scrollTop float64
	listeners map[lazyload.Event][]lazyload.Listener
	logger    *slog.Logger
}

type Option func(*Page)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Page) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Open lays out doc in a viewport of the given size, scrolled to the top.
func Open(doc *html.Document, width, height float64, opts ...Option) *Page {
	p := &Page{
		doc:       doc,
		width:     width,
		height:    height,
		listeners: make(map[lazyload.Event][]lazyload.Listener),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "page")
	p.Relayout()
	return p
}

// OpenFile parses the HTML file at path and opens it.
func OpenFile(path string, width, height float64, opts ...Option) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	doc, err := html.Parse(string(data))
	if err != nil {
		return nil, err
	}
	return Open(doc, width, height, opts...), nil
}

func (p *Page) Document() *html.Document { return p.doc }

func (p *Page) Tree() *layout.Tree { return p.tree }

func (p *Page) Logger() *slog.Logger { return p.logger }

func (p *Page) ScrollTop() float64 { return p.scrollTop }

func (p *Page) ViewportHeight() float64 { return p.height }

func (p *Page) ViewportWidth() float64 { return p.width }

func (p *Page) DocumentHeight() float64 { return p.tree.Height() }

// MaxScroll is the largest scroll position that still fills the viewport.
func (p *Page) MaxScroll() float64 {
	return math.Max(0, p.tree.Height()-p.height)
}

// Relayout recomputes the layout from the current DOM. It does not
// notify listeners; geometry caches only expire on resize.
func (p *Page) Relayout() {
	p.tree = layout.NewLayoutEngine(p.width, p.height).Layout(p.doc)
	p.scrollTop = p.clamp(p.scrollTop)
}

func (p *Page) clamp(y float64) float64 {
	return math.Min(math.Max(0, y), p.MaxScroll())
}

// OffsetParent implements lazyload.Geometry for *html.Node elements.
func (p *Page) OffsetParent(el lazyload.Element) lazyload.Element {
	n, ok := el.(*html.Node)
	if !ok {
		return nil
	}
	if parent := p.tree.OffsetParent(n); parent != nil {
		return parent
	}
	return nil
}

func (p *Page) OffsetTop(el lazyload.Element) float64 {
	n, ok := el.(*html.Node)
	if !ok {
		return 0
	}
	return p.tree.OffsetTop(n)
}

// Candidates returns the <img> elements currently in the document.
func (p *Page) Candidates() any {
	return p.doc.Root.GetElementsByTagName("img")
}

// AddEventListener registers fn for ev. Listeners run in registration order.
func (p *Page) AddEventListener(ev lazyload.Event, fn lazyload.Listener) {
	p.listeners[ev] = append(p.listeners[ev], fn)
}

// Dispatch runs every listener for ev to completion. A listener that
// fails or panics is logged and skipped over; the remaining listeners
// still run and nothing is unregistered. The failures are returned
// joined together.
func (p *Page) Dispatch(ev lazyload.Event) error {
	var errs []error
	for i, fn := range p.listeners[ev] {
		if err := p.safeExecute(fn); err != nil {
			p.logger.Error("listener failed", "event", string(ev), "listener", i, "error", err)
			errs = append(errs, fmt.Errorf("%s listener %d: %w", ev, i, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Page) safeExecute(fn lazyload.Listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Load fires the load notification.
func (p *Page) Load() error {
	return p.Dispatch(lazyload.EventLoad)
}

// ScrollTo moves the viewport to y, clamped to the scrollable range,
// and fires a scroll notification even when the position is unchanged.
func (p *Page) ScrollTo(y float64) error {
	p.scrollTop = p.clamp(y)
	return p.Dispatch(lazyload.EventScroll)
}

func (p *Page) ScrollBy(dy float64) error {
	return p.ScrollTo(p.scrollTop + dy)
}

// Resize changes the viewport, lays the page out again and fires a
// resize notification.
func (p *Page) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %gx%g", width, height)
	}
	p.width, p.height = width, height
	p.Relayout()
	return p.Dispatch(lazyload.EventResize)
}

// Images returns every <img> in the document with its page offset and
// whether it is still waiting on the given deferred-source attribute.
func (p *Page) Images(attr string) []Image {
	var out []Image
	for _, n := range p.doc.Root.GetElementsByTagName("img") {
		src, _ := n.GetAttribute("src")
		out = append(out, Image{
			Node:    n,
			Top:     p.tree.PageTop(n),
			Src:     src,
			Pending: n.HasAttribute(attr),
		})
	}
	return out
}

// Image describes one image for reports and snapshots.
type Image struct {
	Node    *html.Node
	Top     float64
	Src     string
	Pending bool
}
