package lazyload

import (
	"errors"
	"fmt"
)

// fakeElement is a page element with explicit geometry.
type fakeElement struct {
	name   string
	attrs  map[string]string
	top    float64
	parent *fakeElement
}

func newImage(name string, top float64) *fakeElement {
	return &fakeElement{
		name:  name,
		top:   top,
		attrs: map[string]string{DefaultAttribute: "https://cdn.example/" + name + ".png"},
	}
}

func (e *fakeElement) GetAttribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) SetAttribute(name, value string) { e.attrs[name] = value }

func (e *fakeElement) RemoveAttribute(name string) { delete(e.attrs, name) }

func (e *fakeElement) String() string { return e.name }

// fakeEnv is a deterministic page: no rendering, just numbers.
type fakeEnv struct {
	scrollTop  float64
	height     float64
	candidates any
	listeners  map[Event][]Listener
	topReads   int
	broken     *fakeElement // OffsetTop panics for this element
}

func newFakeEnv(height float64, elements ...*fakeElement) *fakeEnv {
	return &fakeEnv{
		height:     height,
		candidates: elements,
		listeners:  make(map[Event][]Listener),
	}
}

func (f *fakeEnv) ScrollTop() float64      { return f.scrollTop }
func (f *fakeEnv) ViewportHeight() float64 { return f.height }
func (f *fakeEnv) Candidates() any         { return f.candidates }

func (f *fakeEnv) OffsetParent(el Element) Element {
	if p := el.(*fakeElement).parent; p != nil {
		return p
	}
	return nil
}

func (f *fakeEnv) OffsetTop(el Element) float64 {
	f.topReads++
	if f.broken != nil && el == Element(f.broken) {
		panic("layout failed for " + f.broken.name)
	}
	return el.(*fakeElement).top
}

func (f *fakeEnv) AddEventListener(ev Event, fn Listener) {
	f.listeners[ev] = append(f.listeners[ev], fn)
}

// dispatch runs every listener for ev, isolating panics the way a page
// isolates its handlers.
func (f *fakeEnv) dispatch(ev Event) error {
	var errs []error
	for _, fn := range f.listeners[ev] {
		func() {
			defer func() {
				if r := recover(); r != nil {
					errs = append(errs, fmt.Errorf("panic: %v", r))
				}
			}()
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}()
	}
	return errors.Join(errs...)
}

func (f *fakeEnv) scrollTo(y float64) error {
	f.scrollTop = y
	return f.dispatch(EventScroll)
}

// elementList is an ArrayLike over fake elements.
type elementList []*fakeElement

func (l elementList) Len() int            { return len(l) }
func (l elementList) Index(i int) Element { return l[i] }
