// Package lazyload defers loading of images until they scroll into view.
//
// At page load a Loader snapshots every candidate element that carries
// the deferred-source attribute into a pending queue. Each scroll
// notification walks that queue once: elements whose distance from the
// top of the page falls within the scrolled viewport get their deferred
// URL copied into the active source attribute and leave the queue.
//
// Offsets are memoized per element and tagged with the generation of
// the OffsetCache that computed them. A resize bumps the generation,
// which makes every cached offset stale without recomputing anything;
// each element is re-measured the next time a scan asks for it.
//
// Everything here is driven synchronously by the environment's
// notifications. Nothing is safe for concurrent use: drive a Loader
// from a single goroutine, the way a page drives its scripts from one
// UI thread.
package lazyload

import "errors"

const (
	// DefaultAttribute holds the URL to load once the element is visible.
	DefaultAttribute = "lazy"
	// DefaultSourceAttribute receives the URL when the element loads.
	DefaultSourceAttribute = "src"
)

var (
	// ErrNotArrayLike is returned when a candidate collection is neither
	// a sequence nor an indexable value with a length.
	ErrNotArrayLike = errors.New("not an array-like value")
	// ErrNotElement is returned when a sequence holds something that is
	// not an Element.
	ErrNotElement = errors.New("not an element")
)

// Element is a page element the loader can inspect and mark as loaded.
// Implementations must be comparable; pointer types are the norm.
type Element interface {
	GetAttribute(name string) (string, bool)
	SetAttribute(name, value string)
	RemoveAttribute(name string)
}

// Event names a page or viewport notification.
type Event string

const (
	EventLoad   Event = "load"
	EventScroll Event = "scroll"
	EventResize Event = "resize"
)

// Listener handles one notification. A returned error is reported by
// the environment and does not stop other listeners.
type Listener func() error

// Geometry answers layout queries. OffsetParent must return a nil
// interface (not a typed nil) when el has no positioning ancestor.
type Geometry interface {
	OffsetParent(el Element) Element
	OffsetTop(el Element) float64
}

// Viewport reports the scrolled window onto the page.
type Viewport interface {
	ScrollTop() float64
	ViewportHeight() float64
}

// Environment is everything a Loader needs from the page it runs in.
type Environment interface {
	Geometry
	Viewport
	// Candidates returns the collection the registry snapshots at load:
	// a slice or array of elements, or an ArrayLike.
	Candidates() any
	AddEventListener(ev Event, fn Listener)
}
