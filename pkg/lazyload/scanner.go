package lazyload

import "log/slog"

// Visible reports whether an element whose top sits at offset is inside
// the viewport. The bottom edge is inclusive.
func Visible(offset, scrollTop, viewportHeight float64) bool {
	return scrollTop+viewportHeight >= offset
}

// Scanner checks pending elements against the viewport and loads the
// ones that became visible.
type Scanner struct {
	cache   *OffsetCache
	view    Viewport
	attr    string
	srcAttr string
	logger  *slog.Logger
	onLoad  func(el Element, url string)
}

func NewScanner(cache *OffsetCache, view Viewport, opts ...Option) *Scanner {
	o := buildOptions(opts)
	return &Scanner{
		cache:   cache,
		view:    view,
		attr:    o.attr,
		srcAttr: o.srcAttr,
		logger:  o.logger,
		onLoad:  o.onLoad,
	}
}

// Scan visits every element in q once, in order, loads the visible ones
// and removes them from q. It returns the loaded elements in queue order.
func (s *Scanner) Scan(q *Queue) []Element {
	if q.Len() == 0 {
		return nil
	}
	scrollTop, height := s.view.ScrollTop(), s.view.ViewportHeight()
	loaded := q.drain(func(el Element) bool {
		if !Visible(s.cache.Offset(el), scrollTop, height) {
			return true
		}
		s.load(el)
		s.cache.Forget(el)
		return false
	})
	return loaded
}

// load moves the deferred URL into the source attribute. An element
// without a deferred URL is left alone.
func (s *Scanner) load(el Element) {
	url, ok := el.GetAttribute(s.attr)
	if !ok || url == "" {
		return
	}
	el.SetAttribute(s.srcAttr, url)
	el.RemoveAttribute(s.attr)
	s.logger.Info("loaded image", "url", url)
	if s.onLoad != nil {
		s.onLoad(el, url)
	}
}
